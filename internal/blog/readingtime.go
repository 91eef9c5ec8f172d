package blog

import (
	"regexp"

	"github.com/qepting91/spacetraveling/internal/domain"
)

// WordsPerMinute is the reading rate used for estimates.
const WordsPerMinute = 200

var wordRegex = regexp.MustCompile(`\w+`)

// CountWords counts runs of word characters across every block of body.
func CountWords(body domain.RichText) int {
	n := 0
	for _, b := range body {
		n += len(wordRegex.FindAllStringIndex(b.Text, -1))
	}
	return n
}

// EstimateReadingTime returns whole minutes, rounded up. Headings are not
// counted; empty content gives 0.
func EstimateReadingTime(content []domain.Section) int {
	words := 0
	for _, s := range content {
		words += CountWords(s.Body)
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// Stat summarises a full post for the dashboard and build manifest.
func Stat(p domain.Post) domain.PostStat {
	words := 0
	for _, s := range p.Content {
		words += CountWords(s.Body)
	}
	return domain.PostStat{
		UID:            p.UID,
		Title:          p.Title,
		Author:         p.Author,
		Published:      p.FirstPublicationDate,
		Words:          words,
		ReadingMinutes: EstimateReadingTime(p.Content),
	}
}
