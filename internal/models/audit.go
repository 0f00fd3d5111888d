package models

import "time"

// Audit is the last-run stamp of a named periodic task.
type Audit struct {
	Name  string    `db:"name" json:"name"`
	Stamp time.Time `db:"stamp" json:"stamp"`
}

// LinkCheckStatus tells clients when the monitor last ran and when it is
// next due.
type LinkCheckStatus struct {
	LastCheck *time.Time `json:"lastCheck"`
	NextCheck time.Time  `json:"nextCheck"`
}
