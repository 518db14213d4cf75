package upstream

import (
	"net/url"
	"strings"
)

type param struct {
	key    string
	value  string
	raw    bool
	secret bool
}

// Query is an ordered, immutable upstream request description.
// Every builder method returns a new Query.
type Query struct {
	base   string
	path   string
	params []param
}

func NewQuery(base, path string) Query {
	return Query{base: strings.TrimRight(base, "/"), path: strings.TrimLeft(path, "/")}
}

func (q Query) with(p param) Query {
	params := make([]param, len(q.params), len(q.params)+1)
	copy(params, q.params)
	q.params = append(params, p)
	return q
}

// Add appends a query-escaped parameter.
func (q Query) Add(key, value string) Query {
	return q.with(param{key: key, value: value})
}

// AddIf appends the parameter only when value is non-empty.
func (q Query) AddIf(key, value string) Query {
	if value == "" {
		return q
	}
	return q.Add(key, value)
}

// AddSecret appends a credential verbatim. Credentials are forwarded exactly
// as configured and never appear in Redacted.
func (q Query) AddSecret(key, value string) Query {
	return q.with(param{key: key, value: value, raw: true, secret: true})
}

func (q Query) Path() string {
	return q.path
}

func (q Query) Param(key string) (string, bool) {
	for _, p := range q.params {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

func (q Query) URL() string {
	return q.render(false)
}

// Redacted renders the URL with credential values masked, for logs.
func (q Query) Redacted() string {
	return q.render(true)
}

func (q Query) render(redact bool) string {
	var b strings.Builder
	b.WriteString(q.base)
	if q.path != "" {
		b.WriteByte('/')
		b.WriteString(q.path)
	}
	for i, p := range q.params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(escape(p.key))
		b.WriteByte('=')
		switch {
		case redact && p.secret:
			b.WriteString("REDACTED")
		case p.raw:
			b.WriteString(p.value)
		default:
			b.WriteString(escape(p.value))
		}
	}
	return b.String()
}

// escape percent-encodes spaces as %20 rather than '+'.
func escape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
