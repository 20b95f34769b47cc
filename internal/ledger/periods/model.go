package periods

import "time"

// Status enumerates fiscal period states.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Period bounds which journal entries may be posted: a closed period rejects
// postings dated inside its range.
type Period struct {
	ID        int64
	Code      string
	StartDate time.Time
	EndDate   time.Time
	Status    Status
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Covers reports whether date falls inside the period range (inclusive).
func (p Period) Covers(date time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	return !day.Before(p.StartDate) && !day.After(p.EndDate)
}
