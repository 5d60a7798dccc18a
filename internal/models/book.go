package models

import "time"

// Book — книга в общей библиотеке (MongoDB, коллекция books).
// AddedByUsername денормализован при создании, чтобы список
// не требовал обращения к коллекции пользователей.
type Book struct {
	ID              string     `bson:"_id"`
	Title           string     `bson:"title"`
	Author          string     `bson:"author"`
	Genre           []string   `bson:"genre"`
	Description     string     `bson:"description"`
	CoverImage      string     `bson:"coverImage"`
	Pages           int32      `bson:"pages,omitempty"`
	IsAudiobook     bool       `bson:"isAudiobook"`
	AudiobookURL    string     `bson:"audiobookUrl,omitempty"`
	Progress        float64    `bson:"progress"`
	PublishedDate   *time.Time `bson:"publishedDate,omitempty"`
	AddedBy         string     `bson:"addedBy"`
	AddedByUsername string     `bson:"addedByUsername"`
	ReadingPartners []string   `bson:"readingPartners"`
	ReadingGroupID  string     `bson:"readingGroupId,omitempty"`
	CreatedAt       time.Time  `bson:"createdAt"`
	UpdatedAt       time.Time  `bson:"updatedAt"`
}

// BookUpdate — частичное обновление книги; nil означает «не менять».
type BookUpdate struct {
	Title          *string
	Author         *string
	Genre          []string
	Description    *string
	CoverImage     *string
	Pages          *int32
	IsAudiobook    *bool
	AudiobookURL   *string
	PublishedDate  *time.Time
	ReadingGroupID *string
}

// Empty сообщает, что обновление ничего не меняет.
func (u BookUpdate) Empty() bool {
	return u.Title == nil && u.Author == nil && u.Genre == nil &&
		u.Description == nil && u.CoverImage == nil && u.Pages == nil &&
		u.IsAudiobook == nil && u.AudiobookURL == nil &&
		u.PublishedDate == nil && u.ReadingGroupID == nil
}

// ListParams — базовые параметры постраничной выдачи.
type ListParams struct {
	PageSize  int32
	PageToken string
}

// BookPage — результат постраничной выдачи книг.
type BookPage struct {
	Items         []Book
	NextPageToken string
}
