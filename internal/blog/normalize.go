package blog

import (
	"encoding/json"
	"time"

	"github.com/qepting91/spacetraveling/internal/domain"
)

type rawPostData struct {
	Title    *string `json:"title"`
	Subtitle string  `json:"subtitle"`
	Author   *string `json:"author"`
	Banner   *struct {
		URL string `json:"url"`
	} `json:"banner"`
	Content *[]struct {
		Heading string          `json:"heading"`
		Body    domain.RichText `json:"body"`
	} `json:"content"`
}

// Normalize maps a raw repository document onto a Post. Documents without a
// title, author or content are rejected with *domain.MalformedDocumentError.
func Normalize(doc domain.RawDocument) (domain.Post, error) {
	var data rawPostData
	if len(doc.Data) == 0 {
		return domain.Post{}, &domain.MalformedDocumentError{DocumentID: doc.ID, Field: "data"}
	}
	if err := json.Unmarshal(doc.Data, &data); err != nil {
		return domain.Post{}, &domain.MalformedDocumentError{DocumentID: doc.ID, Field: "data", Err: err}
	}

	switch {
	case data.Title == nil:
		return domain.Post{}, &domain.MalformedDocumentError{DocumentID: doc.ID, Field: "title"}
	case data.Author == nil:
		return domain.Post{}, &domain.MalformedDocumentError{DocumentID: doc.ID, Field: "author"}
	case data.Content == nil:
		return domain.Post{}, &domain.MalformedDocumentError{DocumentID: doc.ID, Field: "content"}
	}

	first, err := parseDate(doc.FirstPublicationDate)
	if err != nil {
		return domain.Post{}, &domain.MalformedDocumentError{DocumentID: doc.ID, Field: "first_publication_date", Err: err}
	}
	last, err := parseDate(doc.LastPublicationDate)
	if err != nil {
		return domain.Post{}, &domain.MalformedDocumentError{DocumentID: doc.ID, Field: "last_publication_date", Err: err}
	}

	post := domain.Post{
		ID:                   doc.ID,
		UID:                  doc.UID,
		FirstPublicationDate: first,
		LastPublicationDate:  last,
		Title:                *data.Title,
		Subtitle:             data.Subtitle,
		Author:               *data.Author,
		Content:              make([]domain.Section, 0, len(*data.Content)),
	}
	if data.Banner != nil {
		post.BannerURL = data.Banner.URL
	}
	for _, s := range *data.Content {
		post.Content = append(post.Content, domain.Section{Heading: s.Heading, Body: s.Body})
	}
	return post, nil
}

// Summary drops the fields only the detail view needs.
func Summary(p domain.Post) domain.Post {
	return domain.Post{
		ID:                   p.ID,
		UID:                  p.UID,
		FirstPublicationDate: p.FirstPublicationDate,
		Title:                p.Title,
		Subtitle:             p.Subtitle,
		Author:               p.Author,
	}
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := domain.ParseTimestamp(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
