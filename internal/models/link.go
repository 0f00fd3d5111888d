package models

import (
	"fmt"
	"time"
)

// Link is a tracked page and its change-detection state.
type Link struct {
	RowID           int64     `db:"row_id" json:"rowId"`
	URL             string    `db:"url" json:"url"`
	CheckStamp      time.Time `db:"check_stamp" json:"checkStamp"`
	ChangeStamp     time.Time `db:"change_stamp" json:"changeStamp"`
	HTML            string    `db:"html" json:"html"`
	Mask            string    `db:"mask" json:"mask"`
	RunMaskPositive string    `db:"run_mask_positive" json:"runMaskPositive"`
	RunMaskNegative string    `db:"run_mask_negative" json:"runMaskNegative"`
}

// LinkField names a user-editable pattern column of a link.
type LinkField string

const (
	LinkFieldMask            LinkField = "mask"
	LinkFieldRunMaskPositive LinkField = "run_mask_positive"
	LinkFieldRunMaskNegative LinkField = "run_mask_negative"
)

// Valid reports whether f is one of the editable columns.
func (f LinkField) Valid() bool {
	switch f {
	case LinkFieldMask, LinkFieldRunMaskPositive, LinkFieldRunMaskNegative:
		return true
	}
	return false
}

// NewLink creates a freshly tracked link whose stamps are both now.
func NewLink(url, html string, now time.Time) Link {
	return Link{
		URL:         url,
		CheckStamp:  now,
		ChangeStamp: now,
		HTML:        html,
	}
}

// ChangeTitle is the title of the item created when url changes.
func ChangeTitle(url string) string {
	return fmt.Sprintf("Beware %s change", url)
}

// ChangeBody wraps a unified diff in a fenced block.
func ChangeBody(diff string) string {
	return "```diff\n" + diff + "\n```"
}
