package model

// Record is one row of the movie table. Missing cells are stored as the
// empty string, never absent.
type Record struct {
	Title       string
	Description string
}

// Text returns the text that represents the record for embedding. The
// description is preferred; the title is used when the description is empty.
func (r *Record) Text() string {
	if r.Description != "" {
		return r.Description
	}
	return r.Title
}
