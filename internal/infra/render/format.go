package render

import (
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
)

// Number formats n with thousands separators, e.g. 1234567 -> "1,234,567".
func Number(n int64) string {
	return humanize.Comma(n)
}

// Date turns YYYYMMDD into YYYY.MM.DD and leaves anything else untouched.
func Date(value string) string {
	if len(value) != 8 {
		return value
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return value
		}
	}
	return value[:4] + "." + value[4:6] + "." + value[6:]
}

// OrDefault returns fallback for blank values.
func OrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// FirstNonEmpty returns the first non-blank value.
func FirstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// MapLink builds a Kakao Map link for a named coordinate.
func MapLink(name, lat, lng string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return "https://map.kakao.com/link/map/" + escaped + "," + lat + "," + lng
}

// JoinAddress joins address parts, skipping blanks.
func JoinAddress(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " ")
}
