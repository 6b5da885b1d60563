// Package content derives fields admin forms compute before submission.
package content

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// WordsPerMinute is the reading speed used by ReadTime.
const WordsPerMinute = 200

// Slugify turns a title into a URL slug: lower-case ASCII letters and digits
// separated by single hyphens, with no leading or trailing hyphen. Diacritics
// are folded first; letters with no ASCII form are dropped.
func Slugify(title string) string {
	folded := foldDiacritics(strings.ToLower(title))

	var b strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		switch {
		case r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingHyphen = true
		}
		// Other punctuation is dropped without separating words.
	}
	return b.String()
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// StripHTML returns the text content of an HTML fragment. Script and style
// bodies are skipped; block boundaries become spaces.
func StripHTML(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))

	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawText(name) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawText(name) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawText(tag []byte) bool {
	return string(tag) == "script" || string(tag) == "style"
}

// WordCount counts whitespace-separated words in the text of fragment.
func WordCount(fragment string) int {
	return len(strings.Fields(StripHTML(fragment)))
}

// ReadMinutes estimates reading time in whole minutes, rounded up, at least 1.
func ReadMinutes(fragment string) int {
	words := WordCount(fragment)
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// ReadTime formats ReadMinutes as "<n> min read".
func ReadTime(fragment string) string {
	return fmt.Sprintf("%d min read", ReadMinutes(fragment))
}

// Excerpt returns the first max runes of the fragment's text, cut at a word
// boundary and suffixed with an ellipsis when shortened.
func Excerpt(fragment string, max int) string {
	text := StripHTML(fragment)
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	cut := string(r[:max])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
