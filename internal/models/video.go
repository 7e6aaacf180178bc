package models

import "time"

// Video is the metadata of a hosted video. The file itself lives with the
// external video host; only subscribed principals may list or read these.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	CategoryID   *string   `json:"category_id"`
	VimeoURL     *string   `json:"vimeo_url"`
	VimeoID      *string   `json:"vimeo_id"`
	CreatedAt    time.Time `json:"created_date"`
}
