package content

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"punctuation and digits", "Hello, World! 2024", "hello-world-2024"},
		{"collapses whitespace", "  Go   is\tfun  ", "go-is-fun"},
		{"hyphens and underscores", "--snake_case--and-kebab--", "snake-case-and-kebab"},
		{"diacritics folded", "Crème Brûlée à la carte", "creme-brulee-a-la-carte"},
		{"non-ASCII letters dropped", "Straße in 東京 ①", "strae-in"},
		{"mixed scripts", "Привет Go", "go"},
		{"apostrophes joined", "Don't Panic", "dont-panic"},
		{"only punctuation", "!!!", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestStripHTML(t *testing.T) {
	in := `<h1>Title</h1><p>Some <strong>bold</strong> text.</p><script>var x = 1;</script><style>p{}</style><br/>end`
	want := "Title Some bold text. end"
	if got := StripHTML(in); got != want {
		t.Errorf("StripHTML() = %q, want %q", got, want)
	}
}

func TestReadTime(t *testing.T) {
	words := func(n int) string {
		return "<p>" + strings.TrimSpace(strings.Repeat("word ", n)) + "</p>"
	}

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"exactly 400 words", words(400), "2 min read"},
		{"401 words rounds up", words(401), "3 min read"},
		{"200 words", words(200), "1 min read"},
		{"empty has minimum", "", "1 min read"},
		{"markup not counted", "<div><img src=x><p></p></div>" + words(3), "1 min read"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReadTime(tt.content); got != tt.want {
				t.Errorf("ReadTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWordCountIgnoresTags(t *testing.T) {
	if got := WordCount(`<p>one <em>two</em></p><ul><li>three</li></ul>`); got != 3 {
		t.Errorf("WordCount() = %d, want 3", got)
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("<p>short</p>", 20); got != "short" {
		t.Errorf("Excerpt() = %q", got)
	}
	if got := Excerpt("<p>The quick brown fox jumps</p>", 12); got != "The quick…" {
		t.Errorf("Excerpt() = %q, want %q", got, "The quick…")
	}
}
