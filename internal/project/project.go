package project

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/projecthub/internal/account"
)

// Progress is a project's lifecycle state.
type Progress string

const (
	ProgressNotStarted Progress = "not_started"
	ProgressWorking    Progress = "working"
	ProgressFinished   Progress = "finished"
)

// Valid reports whether p is a known progress value.
func (p Progress) Valid() bool {
	switch p {
	case ProgressNotStarted, ProgressWorking, ProgressFinished:
		return true
	}
	return false
}

// Urgency is a project's priority.
type Urgency string

const (
	UrgencyMinimal  Urgency = "minimal"
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
)

// Valid reports whether u is a known urgency value.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyMinimal, UrgencyNormal, UrgencyCritical:
		return true
	}
	return false
}

// Project is a unit of work owned by exactly one account.
type Project struct {
	ID            string        `json:"projectId"`
	Name          string        `json:"projectName"`
	Details       string        `json:"projectDetails,omitempty"`
	Progress      Progress      `json:"progress"`
	Urgency       Urgency       `json:"urgency"`
	TargetDate    *Date         `json:"targetDate"`
	OwnerID       string        `json:"ownerId"`
	Owner         *account.Info `json:"owner,omitempty"`
	InitiatedAt   time.Time     `json:"initiatedAt"`
	LastUpdatedAt time.Time     `json:"lastUpdatedAt"`
}

// Termination confirms a project deletion.
type Termination struct {
	Confirmation string `json:"confirmation"`
}

// Domain errors.
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidProject  = errors.New("invalid project")
)

// ValidationError describes a rejected project field. It matches
// ErrInvalidProject under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap ties the error to ErrInvalidProject.
func (e *ValidationError) Unwrap() error { return ErrInvalidProject }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// dateLayout is the calendar date wire and storage format.
const dateLayout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// NewDate returns the calendar date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp, keeping the
// calendar date as written.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a date string in any format ParseDate accepts.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as YYYY-MM-DD.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan reads a DATE column from either backend.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) < len(dateLayout) {
		return fmt.Errorf("cannot scan %q into Date", s)
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return fmt.Errorf("cannot scan %q into Date: %w", s, err)
	}
	*d = Date{t}
	return nil
}
