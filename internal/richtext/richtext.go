// Package richtext renders the content repository's structured text blocks.
package richtext

import (
	"html"
	"html/template"
	"net/url"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/qepting91/spacetraveling/internal/domain"
)

// AsHTML renders rt as HTML. Text is escaped; links are only emitted for
// http, https, mailto and tel targets.
func AsHTML(rt domain.RichText) template.HTML {
	var b strings.Builder

	for i := 0; i < len(rt); i++ {
		blk := rt[i]
		switch blk.Type {
		case "list-item", "o-list-item":
			tag := "ul"
			if blk.Type == "o-list-item" {
				tag = "ol"
			}
			b.WriteString("<" + tag + ">")
			for ; i < len(rt) && rt[i].Type == blk.Type; i++ {
				b.WriteString("<li>" + inline(rt[i].Text, rt[i].Spans) + "</li>")
			}
			i--
			b.WriteString("</" + tag + ">")
		case "heading1", "heading2", "heading3", "heading4", "heading5", "heading6":
			tag := "h" + strings.TrimPrefix(blk.Type, "heading")
			b.WriteString("<" + tag + ">" + inline(blk.Text, blk.Spans) + "</" + tag + ">")
		case "preformatted":
			b.WriteString("<pre>" + html.EscapeString(blk.Text) + "</pre>")
		case "image":
			if safeURL(blk.URL) {
				b.WriteString(`<p class="block-img"><img src="` + html.EscapeString(blk.URL) +
					`" alt="` + html.EscapeString(blk.Alt) + `" /></p>`)
			}
		default:
			b.WriteString("<p>" + inline(blk.Text, blk.Spans) + "</p>")
		}
	}

	return template.HTML(b.String()) //nolint:gosec // every text fragment above is escaped
}

// AsText joins the text of every block with newlines.
func AsText(rt domain.RichText) string {
	parts := make([]string, 0, len(rt))
	for _, blk := range rt {
		if blk.Text != "" {
			parts = append(parts, blk.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// inline renders text with its spans. Span offsets count UTF-16 code units.
// Tags are closed and reopened at every span boundary so overlapping spans
// still nest correctly.
func inline(text string, spans []domain.Span) string {
	units := utf16.Encode([]rune(text))
	n := len(units)

	valid := make([]domain.Span, 0, len(spans))
	bounds := []int{0, n}
	for _, s := range spans {
		start, end := clamp(s.Start, n), clamp(s.End, n)
		if start >= end {
			continue
		}
		s.Start, s.End = start, end
		valid = append(valid, s)
		bounds = append(bounds, start, end)
	}
	sort.Ints(bounds)
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})

	var b strings.Builder
	for i := 0; i+1 < len(bounds); i++ {
		lo, hi := bounds[i], bounds[i+1]
		if lo == hi {
			continue
		}

		var closers []string
		for _, s := range valid {
			if s.Start <= lo && s.End >= hi {
				opener, closer := tags(s)
				if opener == "" {
					continue
				}
				b.WriteString(opener)
				closers = append(closers, closer)
			}
		}
		segment := html.EscapeString(string(utf16.Decode(units[lo:hi])))
		b.WriteString(strings.ReplaceAll(segment, "\n", "<br />"))
		for j := len(closers) - 1; j >= 0; j-- {
			b.WriteString(closers[j])
		}
	}
	return b.String()
}

func tags(s domain.Span) (string, string) {
	switch s.Type {
	case "strong":
		return "<strong>", "</strong>"
	case "em":
		return "<em>", "</em>"
	case "label":
		return `<span class="label">`, "</span>"
	case "hyperlink":
		if s.Data == nil || !safeURL(s.Data.URL) {
			return "", ""
		}
		open := `<a href="` + html.EscapeString(s.Data.URL) + `"`
		if s.Data.Target != "" {
			open += ` target="` + html.EscapeString(s.Data.Target) + `" rel="noopener noreferrer"`
		}
		return open + ">", "</a>"
	}
	return "", ""
}

func safeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto", "tel", "":
		return true
	}
	return false
}

func clamp(v, n int) int {
	return max(0, min(v, n))
}
