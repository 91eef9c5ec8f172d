package blog_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qepting91/spacetraveling/internal/blog"
	"github.com/qepting91/spacetraveling/internal/domain"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func section(texts ...string) domain.Section {
	body := make(domain.RichText, 0, len(texts))
	for _, t := range texts {
		body = append(body, domain.Block{Type: "paragraph", Text: t})
	}
	return domain.Section{Heading: "Heading with several words", Body: body}
}

func TestEstimateReadingTime(t *testing.T) {
	tests := []struct {
		name    string
		content []domain.Section
		want    int
	}{
		{name: "no content", content: nil, want: 0},
		{name: "no word characters", content: []domain.Section{section("... !!! --", "")}, want: 0},
		{name: "three words", content: []domain.Section{section("one two three")}, want: 1},
		{name: "exactly 200 words", content: []domain.Section{section(words(200))}, want: 1},
		{name: "201 words", content: []domain.Section{section(words(200), "extra")}, want: 2},
		{name: "spread across sections", content: []domain.Section{section(words(150)), section(words(250))}, want: 2},
		{name: "image blocks count nothing", content: []domain.Section{{Body: domain.RichText{{Type: "image", URL: "https://x/y.png"}}}}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, blog.EstimateReadingTime(tt.content))
		})
	}
}

func TestCountWords_MatchesWordCharacterRuns(t *testing.T) {
	body := domain.RichText{
		{Type: "paragraph", Text: "it's an e-mail"},
		{Type: "paragraph", Text: "snake_case 42"},
	}

	// it, s, an, e, mail, snake_case, 42
	assert.Equal(t, 7, blog.CountWords(body))
}

func TestEstimateReadingTime_IgnoresHeadings(t *testing.T) {
	content := []domain.Section{{Heading: words(500), Body: domain.RichText{{Type: "paragraph", Text: "short"}}}}

	assert.Equal(t, 1, blog.EstimateReadingTime(content))
}
