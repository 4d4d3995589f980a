package content

import (
	"testing"
	"time"
)

func TestNormalizePayloadStructured(t *testing.T) {
	data := map[string]any{
		"frontmatter": map[string]any{"title": "Hello"},
		"content":     "body",
	}

	p := NormalizePayload(data)

	if p.String("title") != "Hello" {
		t.Errorf("expected title Hello, got %q", p.String("title"))
	}
	if p.Content != "body" {
		t.Errorf("expected content body, got %q", p.Content)
	}
}

func TestNormalizePayloadFlat(t *testing.T) {
	data := map[string]any{
		"title":   "Hello",
		"draft":   true,
		"content": "body",
	}

	p := NormalizePayload(data)

	if p.String("title") != "Hello" {
		t.Errorf("expected title Hello, got %q", p.String("title"))
	}
	if !p.Bool("draft") {
		t.Error("expected draft true")
	}
	if p.Content != "body" {
		t.Errorf("expected content body, got %q", p.Content)
	}
	if _, ok := p.Frontmatter["content"]; ok {
		t.Error("expected content to be lifted out of frontmatter")
	}
}

func TestNormalizePayloadNil(t *testing.T) {
	p := NormalizePayload(nil)
	if p.Frontmatter == nil {
		t.Fatal("expected non-nil frontmatter map")
	}
}

func TestPayloadStringList(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want int
	}{
		{"yaml list", []any{"go", "sync"}, 2},
		{"string slice", []string{"go"}, 1},
		{"comma separated", "go, sync , cli", 3},
		{"empty string", "", 0},
		{"absent", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Payload{Frontmatter: map[string]any{"tags": tt.val}}
			got := p.StringList("tags")
			if len(got) != tt.want {
				t.Errorf("expected %d entries, got %v", tt.want, got)
			}
		})
	}
}

func TestPayloadInt(t *testing.T) {
	p := Payload{Frontmatter: map[string]any{
		"a": 3,
		"b": float64(4), // JSON decode
		"c": "5",
	}}

	if p.Int("a") != 3 || p.Int("b") != 4 || p.Int("c") != 5 {
		t.Errorf("unexpected int decoding: %d %d %d", p.Int("a"), p.Int("b"), p.Int("c"))
	}
	if p.Int("missing") != 0 {
		t.Error("expected 0 for missing key")
	}
}

func TestPayloadTime(t *testing.T) {
	p := Payload{Frontmatter: map[string]any{
		"date": "2024-03-10",
		"ts":   "2024-03-10T12:30:00Z",
	}}

	if got := p.Time("date"); got.Year() != 2024 || got.Month() != time.March {
		t.Errorf("unexpected date parse: %v", got)
	}
	if got := p.Time("ts"); got.Hour() != 12 {
		t.Errorf("unexpected timestamp parse: %v", got)
	}
	if !p.Time("missing").IsZero() {
		t.Error("expected zero time for missing key")
	}
}

func TestPayloadLanguage(t *testing.T) {
	p := Payload{Frontmatter: map[string]any{"language": "DE"}}
	if got := p.Language("en"); got != "de" {
		t.Errorf("expected de, got %q", got)
	}

	empty := Payload{Frontmatter: map[string]any{}}
	if got := empty.Language("en"); got != "en" {
		t.Errorf("expected primary fallback en, got %q", got)
	}
}
