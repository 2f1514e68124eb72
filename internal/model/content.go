package model

import "time"

// Content is a minimal view of a catalog item that showings can be
// scheduled for.  Catalog management lives outside this service;
// rows in the `contents` table are maintained externally and only
// read here.  The duration determines a showing's end time.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title.
//  DurationMin – running time in minutes.
//  CreatedAt   – creation timestamp.
type Content struct {
	ID          uint64    // contents.id
	Title       string    // contents.title
	DurationMin uint32    // contents.duration_min
	CreatedAt   time.Time // contents.created_at
}

// Duration returns the running time as a time.Duration.
func (c Content) Duration() time.Duration {
	return time.Duration(c.DurationMin) * time.Minute
}
