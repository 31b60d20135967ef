package model

import "time"

// Tracker types. Fixed at creation; the type decides how entries are
// submitted and whether current_value is derived.
const (
	TrackerTypeCounter     = "counter"
	TrackerTypeProgress    = "progress"
	TrackerTypeHabit       = "habit"
	TrackerTypeMeasurement = "measurement"
)

// Entry statuses for counter/habit trackers. Measurement entries carry
// the sentinel "measurement" status instead.
const (
	EntryStatusSuccess     = "success"
	EntryStatusFailure     = "failure"
	EntryStatusReset       = "reset"
	EntryStatusMeasurement = "measurement"
)

type Tracker struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	CurrentValue float64   `json:"current_value"`
	TargetValue  *float64  `json:"target_value"`
	CreatedAt    time.Time `json:"created_at"`
}

// TrackerEntry is one dated record against a tracker. Date is the calendar
// day the entry applies to (YYYY-MM-DD); EntryTime is the time of day it
// was recorded (HH:MM:SS), which may differ from the date.
type TrackerEntry struct {
	ID        int64     `json:"id"`
	TrackerID int64     `json:"tracker_id"`
	Date      string    `json:"date"`
	EntryTime string    `json:"entry_time"`
	Value     float64   `json:"value"`
	Status    string    `json:"status"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}
