package models

// Candidate is one feed listing entry considered for ingestion.
type Candidate struct {
	ID        string
	MediaURL  string // empty when the post has no direct media reference
	Title     string
	Author    string
	Permalink string
}
