package storage

import (
	"errors"
	"time"

	"midloop/content"
)

// ErrNotFound is returned when a bookmark does not exist.
var ErrNotFound = errors.New("bookmark not found")

// Bookmark is a stored snapshot of a StandardItem.
type Bookmark struct {
	Item      content.StandardItem `json:"item"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}
