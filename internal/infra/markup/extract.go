// Package markup pulls field values out of loosely structured XML payloads
// without a schema. It never fails: absent or malformed input yields empty results.
package markup

import (
	"regexp"
	"strings"
	"sync"
)

type tagPatterns struct {
	cdata *regexp.Regexp
	plain *regexp.Regexp
	any   *regexp.Regexp
	block *regexp.Regexp
}

var patternCache sync.Map

func patternsFor(tag string) *tagPatterns {
	if cached, ok := patternCache.Load(tag); ok {
		return cached.(*tagPatterns)
	}
	quoted := regexp.QuoteMeta(tag)
	open := "<" + quoted + ">"
	closing := "</" + quoted + ">"
	cdata := open + `<!\[CDATA\[(.*?)\]\]>` + closing
	plain := open + `([^<]*)` + closing
	patterns := &tagPatterns{
		cdata: regexp.MustCompile(`(?s)` + cdata),
		plain: regexp.MustCompile(`(?s)` + plain),
		any:   regexp.MustCompile(`(?s)` + cdata + `|` + plain),
		block: regexp.MustCompile(`(?s)` + open + `(.*?)` + closing),
	}
	actual, _ := patternCache.LoadOrStore(tag, patterns)
	return actual.(*tagPatterns)
}

// ExtractValue returns the trimmed payload of the first tag occurrence.
// A CDATA-wrapped payload anywhere in the fragment wins over a plain one.
func ExtractValue(xml, tag string) string {
	if xml == "" || tag == "" {
		return ""
	}
	patterns := patternsFor(tag)
	if match := patterns.cdata.FindStringSubmatch(xml); match != nil {
		return strings.TrimSpace(match[1])
	}
	if match := patterns.plain.FindStringSubmatch(xml); match != nil {
		return strings.TrimSpace(match[1])
	}
	return ""
}

// ExtractValues returns the payload of every occurrence of tag in document order.
func ExtractValues(xml, tag string) []string {
	if xml == "" || tag == "" {
		return nil
	}
	matches := patternsFor(tag).any.FindAllStringSubmatch(xml, -1)
	if len(matches) == 0 {
		return nil
	}
	values := make([]string, 0, len(matches))
	for _, match := range matches {
		value := match[1]
		if value == "" {
			value = match[2]
		}
		values = append(values, strings.TrimSpace(value))
	}
	return values
}

// ExtractBlocks returns the raw inner markup of every tag element.
func ExtractBlocks(xml, tag string) []string {
	if xml == "" || tag == "" {
		return nil
	}
	matches := patternsFor(tag).block.FindAllStringSubmatch(xml, -1)
	if len(matches) == 0 {
		return nil
	}
	blocks := make([]string, 0, len(matches))
	for _, match := range matches {
		blocks = append(blocks, match[1])
	}
	return blocks
}

// StripBlocks removes every tag element, contents included.
func StripBlocks(xml, tag string) string {
	if xml == "" || tag == "" {
		return xml
	}
	return patternsFor(tag).block.ReplaceAllString(xml, "")
}
