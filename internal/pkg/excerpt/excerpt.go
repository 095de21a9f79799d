// Package excerpt derives plain-text summaries from Markdown post bodies.
package excerpt

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	mdhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
)

// MaxLength is the longest excerpt stored on a post, in runes.
const MaxLength = 300

// Raw HTML is passed through so its text survives; tags are stripped anyway.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(mdhtml.WithUnsafe()),
)

var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "code": true, "del": true, "em": true,
	"i": true, "mark": true, "s": true, "small": true, "span": true,
	"strong": true, "sub": true, "sup": true, "u": true,
}

// FromMarkdown renders content, strips every tag and returns the first n runes
// of the remaining text with whitespace collapsed.
func FromMarkdown(content string, n int) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return Truncate(StripTags(content), n)
	}
	return Truncate(StripTags(buf.String()), n)
}

// StripTags drops markup from an HTML fragment and collapses whitespace.
func StripTags(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		switch tt := z.Next(); tt {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way the text so far is kept
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
			case !inlineTags[tag]:
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// Truncate keeps at most n runes of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
