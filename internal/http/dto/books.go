package dto

import (
	"time"

	"github.com/pribylovaa/bookshelf/internal/models"
	"github.com/pribylovaa/bookshelf/internal/service"
)

type Book struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Genre           []string   `json:"genre"`
	Description     string     `json:"description"`
	CoverImage      string     `json:"coverImage"`
	Pages           int32      `json:"pages,omitempty"`
	IsAudiobook     bool       `json:"isAudiobook"`
	AudiobookURL    string     `json:"audiobookUrl,omitempty"`
	Progress        float64    `json:"progress"`
	PublishedDate   *time.Time `json:"publishedDate,omitempty"`
	AddedBy         string     `json:"addedBy"`
	AddedByUsername string     `json:"addedByUsername"`
	ReadingPartners []string   `json:"readingPartners"`
	ReadingGroupID  string     `json:"readingGroupId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func BookFromModel(b *models.Book) Book {
	partners := b.ReadingPartners
	if partners == nil {
		partners = []string{}
	}

	return Book{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Genre:           b.Genre,
		Description:     b.Description,
		CoverImage:      b.CoverImage,
		Pages:           b.Pages,
		IsAudiobook:     b.IsAudiobook,
		AudiobookURL:    b.AudiobookURL,
		Progress:        b.Progress,
		PublishedDate:   b.PublishedDate,
		AddedBy:         b.AddedBy,
		AddedByUsername: b.AddedByUsername,
		ReadingPartners: partners,
		ReadingGroupID:  b.ReadingGroupID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

type BookPage struct {
	Items         []Book `json:"items"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

func BookPageFromModel(p *models.BookPage) BookPage {
	items := make([]Book, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, BookFromModel(&p.Items[i]))
	}

	return BookPage{Items: items, NextPageToken: p.NextPageToken}
}

type CreateBookRequest struct {
	Title          string     `json:"title"`
	Author         string     `json:"author"`
	Genre          []string   `json:"genre"`
	Description    string     `json:"description"`
	CoverImage     string     `json:"coverImage,omitempty"`
	Pages          int32      `json:"pages,omitempty"`
	IsAudiobook    bool       `json:"isAudiobook,omitempty"`
	AudiobookURL   string     `json:"audiobookUrl,omitempty"`
	Progress       float64    `json:"progress,omitempty"`
	PublishedDate  *time.Time `json:"publishedDate,omitempty"`
	ReadingGroupID string     `json:"readingGroupId,omitempty"`
}

func (m CreateBookRequest) ToInput() service.CreateBookInput {
	return service.CreateBookInput{
		Title:          m.Title,
		Author:         m.Author,
		Genre:          m.Genre,
		Description:    m.Description,
		CoverImage:     m.CoverImage,
		Pages:          m.Pages,
		IsAudiobook:    m.IsAudiobook,
		AudiobookURL:   m.AudiobookURL,
		Progress:       m.Progress,
		PublishedDate:  m.PublishedDate,
		ReadingGroupID: m.ReadingGroupID,
	}
}

// UpdateBookRequest — частичное обновление: отсутствующее поле не меняется.
type UpdateBookRequest struct {
	Title          *string    `json:"title,omitempty"`
	Author         *string    `json:"author,omitempty"`
	Genre          []string   `json:"genre,omitempty"`
	Description    *string    `json:"description,omitempty"`
	CoverImage     *string    `json:"coverImage,omitempty"`
	Pages          *int32     `json:"pages,omitempty"`
	IsAudiobook    *bool      `json:"isAudiobook,omitempty"`
	AudiobookURL   *string    `json:"audiobookUrl,omitempty"`
	PublishedDate  *time.Time `json:"publishedDate,omitempty"`
	ReadingGroupID *string    `json:"readingGroupId,omitempty"`
}

func (m UpdateBookRequest) ToInput() service.UpdateBookInput {
	return service.UpdateBookInput{
		Title:          m.Title,
		Author:         m.Author,
		Genre:          m.Genre,
		Description:    m.Description,
		CoverImage:     m.CoverImage,
		Pages:          m.Pages,
		IsAudiobook:    m.IsAudiobook,
		AudiobookURL:   m.AudiobookURL,
		PublishedDate:  m.PublishedDate,
		ReadingGroupID: m.ReadingGroupID,
	}
}

type ProgressRequest struct {
	Progress *float64 `json:"progress"`
}

type PartnerRequest struct {
	PartnerID string `json:"partnerId"`
}

type CurrentBookRequest struct {
	BookID string `json:"bookId"`
}
