package entity

import (
	"time"
)

type CapsuleStatus string

const (
	CapsuleStatusScheduled CapsuleStatus = "scheduled"
	CapsuleStatusDelivered CapsuleStatus = "delivered"
	CapsuleStatusExpired   CapsuleStatus = "expired"
)

const (
	MinPriority = 1
	MaxPriority = 5
)

// ExpirationGraceYears is how long a scheduled capsule may stay past its
// target day before the batch processor marks it expired.
const ExpirationGraceYears = 1

type FileMetadata struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type Capsule struct {
	ID                 string        `json:"id" db:"id"`
	UserID             string        `json:"user_id" db:"user_id"`
	Message            string        `json:"message" db:"message"`
	FileMetadata       *FileMetadata `json:"file_metadata,omitempty"`
	Priority           int           `json:"priority" db:"priority"`
	TargetDeliveryDate time.Time     `json:"target_delivery_date" db:"target_delivery_date"`
	ActualDeliveryDate *time.Time    `json:"actual_delivery_date,omitempty" db:"actual_delivery_date"`
	Status             CapsuleStatus `json:"status" db:"status"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

// StartOfDay truncates t to 00:00:00.000 of its calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayWindow returns the [00:00:00.000, 23:59:59.999] bounds of t's calendar
// day. All conflict and due-date queries compare against this window.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t)
	end := start.Add(24*time.Hour - time.Millisecond)
	return start, end
}

// IsExpired reports whether a capsule still scheduled on or after its target
// day has outlived the one-year grace period. Pure function of the capsule
// and the supplied clock value.
func IsExpired(c *Capsule, now time.Time) bool {
	return now.After(c.TargetDeliveryDate.AddDate(ExpirationGraceYears, 0, 0))
}
