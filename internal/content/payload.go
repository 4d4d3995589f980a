package content

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Payload is the normalized view of an item's data map. Parsers emit
// either a flat field map or a {frontmatter, content} pair; both are
// folded into this one shape at the mapper boundary so mappers never
// probe for either layout themselves.
type Payload struct {
	Frontmatter map[string]any
	Content     string
}

// NormalizePayload folds the two parser payload shapes into a Payload.
func NormalizePayload(data map[string]any) Payload {
	if data == nil {
		return Payload{Frontmatter: map[string]any{}}
	}

	if fm, ok := data["frontmatter"].(map[string]any); ok {
		body, _ := data["content"].(string)
		return Payload{Frontmatter: fm, Content: body}
	}

	// Flat shape: every key except the body is frontmatter.
	fm := make(map[string]any, len(data))
	for k, v := range data {
		if k == "content" {
			continue
		}
		fm[k] = v
	}
	body, _ := data["content"].(string)
	return Payload{Frontmatter: fm, Content: body}
}

// String returns the first non-empty string value among the given keys.
func (p Payload) String(keys ...string) string {
	for _, key := range keys {
		switch v := p.Frontmatter[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case fmt.Stringer:
			if s := v.String(); s != "" {
				return s
			}
		}
	}
	return ""
}

// StringList returns the value under key as a string slice. Accepts a
// []any of strings (the usual YAML list decode) or a comma-separated
// string.
func (p Payload) StringList(key string) []string {
	switch v := p.Frontmatter[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Bool returns the boolean under key, tolerating string spellings.
func (p Payload) Bool(key string) bool {
	switch v := p.Frontmatter[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// Int returns the integer under key, tolerating the numeric types JSON
// and YAML decoders produce.
func (p Payload) Int(key string) int {
	switch v := p.Frontmatter[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}

// dateLayouts are tried in order when parsing frontmatter dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time parses the value under key as a timestamp. Returns the zero
// time when the key is absent or unparseable.
func (p Payload) Time(key string) time.Time {
	switch v := p.Frontmatter[key].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// Language returns the item's language code, defaulting to the
// primary language when the frontmatter does not declare one.
func (p Payload) Language(primary string) string {
	if lang := p.String("language", "lang"); lang != "" {
		return strings.ToLower(lang)
	}
	return primary
}
