package models

import "time"

// PostingHistory is one platform outcome of one run.
type PostingHistory struct {
	ID        int64      `db:"id" json:"id"`
	RunID     string     `db:"run_id" json:"run_id"`
	ContentID int64      `db:"content_id" json:"content_id"`
	Platform  Platform   `db:"platform" json:"platform"`
	Outcome   ResultKind `db:"outcome" json:"outcome"`
	Detail    string     `db:"detail" json:"detail"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
