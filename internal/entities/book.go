package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type BookState string

const (
	StatePending BookState = "PENDING"
	StateReading BookState = "READING"
	StateRead    BookState = "READ"
)

type BookFormat string

const (
	FormatPhysical BookFormat = "PHYSICAL"
	FormatDigital  BookFormat = "DIGITAL"
)

// PriorityUnset marks a book that is not part of the pending queue.
const PriorityUnset = -1

// StringList persists an ordered list of strings as a single JSON text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return string(data), nil
}

func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported string list column type %T", value)
	}

	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

// EpochMillis persists a timestamp as milliseconds since the Unix epoch.
// The zero value means "not set" and is stored as NULL.
type EpochMillis struct {
	time.Time
}

// NewEpochMillis truncates t to millisecond precision so that a value
// survives a save/load round trip unchanged.
func NewEpochMillis(t time.Time) EpochMillis {
	return EpochMillis{t.Truncate(time.Millisecond)}
}

func (e EpochMillis) Value() (driver.Value, error) {
	if e.IsZero() {
		return nil, nil
	}
	return e.UnixMilli(), nil
}

func (e *EpochMillis) Scan(value any) error {
	if value == nil {
		*e = EpochMillis{}
		return nil
	}

	switch v := value.(type) {
	case int64:
		*e = EpochMillis{time.UnixMilli(v).UTC()}
	case time.Time:
		*e = EpochMillis{v.UTC()}
	default:
		return fmt.Errorf("unsupported epoch millis column type %T", value)
	}
	return nil
}

// Book is one title in the user's collection. The id is the external catalog
// identifier, stable across devices, which makes it the primary key.
type Book struct {
	ID            string      `gorm:"primaryKey;size:64" json:"id"`
	Title         string      `gorm:"index;size:512" json:"title"`
	Subtitle      string      `gorm:"size:512" json:"subtitle,omitempty"`
	Authors       StringList  `gorm:"type:text" json:"authors,omitempty"`
	Publisher     string      `gorm:"size:256" json:"publisher,omitempty"`
	PublishedDate EpochMillis `gorm:"type:integer" json:"published_date,omitempty"`
	ReadingDate   EpochMillis `gorm:"type:integer" json:"reading_date,omitempty"`
	Description   string      `gorm:"type:text" json:"description,omitempty"`
	Summary       string      `gorm:"type:text" json:"summary,omitempty"`
	ISBN          string      `gorm:"index;size:20" json:"isbn,omitempty"`
	PageCount     int         `json:"page_count"`
	Categories    StringList  `gorm:"type:text" json:"categories,omitempty"`
	AverageRating float64     `json:"average_rating"`
	RatingsCount  int         `json:"ratings_count"`
	Rating        float64     `json:"rating"`
	Thumbnail     string      `gorm:"size:2048" json:"thumbnail,omitempty"`
	Image         string      `gorm:"size:2048" json:"image,omitempty"`
	Format        BookFormat  `gorm:"size:20" json:"format,omitempty"`
	State         BookState   `gorm:"index;size:20;default:'PENDING'" json:"state"`
	IsFavourite   bool        `gorm:"default:false" json:"is_favourite"`
	Priority      int         `gorm:"default:-1" json:"priority"`
}

func (Book) TableName() string {
	return "books"
}

// Equal reports full-field equality. Reconciliation uses it to decide whether
// a local copy needs to be pushed to the remote collection.
func (b Book) Equal(other Book) bool {
	if b.ID != other.ID ||
		b.Title != other.Title ||
		b.Subtitle != other.Subtitle ||
		b.Publisher != other.Publisher ||
		b.Description != other.Description ||
		b.Summary != other.Summary ||
		b.ISBN != other.ISBN ||
		b.PageCount != other.PageCount ||
		b.AverageRating != other.AverageRating ||
		b.RatingsCount != other.RatingsCount ||
		b.Rating != other.Rating ||
		b.Thumbnail != other.Thumbnail ||
		b.Image != other.Image ||
		b.Format != other.Format ||
		b.State != other.State ||
		b.IsFavourite != other.IsFavourite ||
		b.Priority != other.Priority {
		return false
	}
	if !b.PublishedDate.Equal(other.PublishedDate.Time) || !b.ReadingDate.Equal(other.ReadingDate.Time) {
		return false
	}
	return equalLists(b.Authors, other.Authors) && equalLists(b.Categories, other.Categories)
}

func equalLists(a, b StringList) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
