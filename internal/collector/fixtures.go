package collector

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/qepting91/spacetraveling/internal/domain"
)

// PostFixture builds a raw post document in the repository's shape.
type PostFixture struct {
	ID        string
	UID       string
	Title     string
	Subtitle  string
	Author    string
	BannerURL string
	First     *time.Time
	Last      *time.Time
	Sections  []domain.Section
}

func (f PostFixture) Document() domain.RawDocument {
	content := make([]map[string]any, 0, len(f.Sections))
	for _, s := range f.Sections {
		content = append(content, map[string]any{"heading": s.Heading, "body": s.Body})
	}
	data, _ := json.Marshal(map[string]any{
		"title":    f.Title,
		"subtitle": f.Subtitle,
		"author":   f.Author,
		"banner":   map[string]string{"url": f.BannerURL},
		"content":  content,
	})

	doc := domain.RawDocument{ID: f.ID, UID: f.UID, Type: "post", Data: data}
	if f.First != nil {
		s := domain.FormatTimestamp(*f.First)
		doc.FirstPublicationDate = &s
	}
	if f.Last != nil {
		s := domain.FormatTimestamp(*f.Last)
		doc.LastPublicationDate = &s
	}
	return doc
}

var sampleWords = strings.Fields(`
	space travel orbit rocket launch crew module station mission fuel engine
	gravity planet moon comet nebula signal antenna telemetry payload thrust
	capsule hatch airlock suit visor tether dock ring habitat greenhouse`)

var sampleAuthors = []string{"Joseph Oliveira", "Danilo Vieira", "Lucas Amaral"}

// SamplePosts returns n posts published one day apart starting at start.
// Every third post is edited a few hours after publication.
func SamplePosts(n int, start time.Time) []domain.RawDocument {
	docs := make([]domain.RawDocument, 0, n)
	for i := 0; i < n; i++ {
		first := start.Add(time.Duration(i) * 24 * time.Hour)
		last := first
		if i%3 == 0 {
			last = first.Add(time.Duration(i+1) * time.Hour)
		}

		f := PostFixture{
			ID:        fmt.Sprintf("doc-%03d", i+1),
			UID:       fmt.Sprintf("post-%03d", i+1),
			Title:     fmt.Sprintf("Mission log %d", i+1),
			Subtitle:  fmt.Sprintf("Notes from flight %d", i+1),
			Author:    sampleAuthors[i%len(sampleAuthors)],
			BannerURL: fmt.Sprintf("https://images.example.com/banner-%d.png", i+1),
			First:     &first,
			Last:      &last,
			Sections: []domain.Section{
				{Heading: "Launch", Body: domain.RichText{{Type: "paragraph", Text: sampleText(120 + 15*i)}}},
				{Heading: "Orbit", Body: domain.RichText{
					{Type: "paragraph", Text: sampleText(80)},
					{Type: "list-item", Text: sampleText(6)},
					{Type: "list-item", Text: sampleText(4)},
				}},
			},
		}
		docs = append(docs, f.Document())
	}
	return docs
}

func sampleText(words int) string {
	out := make([]string, words)
	for i := range out {
		out[i] = sampleWords[i%len(sampleWords)]
	}
	return strings.Join(out, " ")
}
