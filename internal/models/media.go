package models

import "time"

// MediaRecord is one ingested image and its publication state.
type MediaRecord struct {
	PostID    string     `db:"post_id" bson:"postId" json:"postId"`
	PictName  string     `db:"pict_name" bson:"pictName" json:"pictName"` // object storage key
	Title     string     `db:"title" bson:"title" json:"title"`
	Author    string     `db:"author" bson:"author" json:"author"`
	URL       string     `db:"url" bson:"url" json:"url"`
	IsPosted  bool       `db:"is_posted" bson:"isPosted" json:"isPosted"`
	CreatedAt time.Time  `db:"created_at" bson:"createdAt" json:"createdAt"`
	PostedAt  *time.Time `db:"posted_at" bson:"postedAt,omitempty" json:"postedAt,omitempty"`
}

type MediaStats struct {
	Total       int64 `json:"total"`
	Unpublished int64 `json:"unpublished"`
	Published   int64 `json:"published"`
}
