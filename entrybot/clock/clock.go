// Package clock supplies the fixed UTC+9 wall clock used for check-in days
// and record timestamps.
package clock

import (
	"fmt"
	"sync"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// KST is the single zone every date and timestamp is expressed in. It has no
// daylight saving transitions.
var KST = time.FixedZone("KST", 9*60*60)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns the process clock converted to KST.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().In(KST)
}

// Today returns the current calendar day of c.
func Today(c Clock) Date {
	return DateOf(c.Now())
}

// Manual is a controllable clock for tests and replay tooling.
type Manual struct {
	mu      sync.Mutex
	current time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{current: start.In(KST)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.current = t.In(KST)
	m.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
	return m.current
}

// Date is a calendar day in KST. The zero value is "no date".
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, KST)}
}

// DateOf returns the KST calendar day containing t.
func DateOf(t time.Time) Date {
	k := t.In(KST)
	return NewDate(k.Year(), k.Month(), k.Day())
}

// ParseDate accepts YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, KST)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// ParseCompactDate accepts the YYYYMMDD form typed into slash command options.
func ParseCompactDate(s string) (Date, error) {
	t, err := time.ParseInLocation("20060102", s, KST)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Time() time.Time { return d.t }

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.t.Before(o.t):
		return -1
	case d.t.After(o.t):
		return 1
	}
	return 0
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// InRange reports whether d lies within [start, end]; a nil bound is open.
func (d Date) InRange(start, end *Date) bool {
	if start != nil && d.Before(*start) {
		return false
	}
	if end != nil && d.After(*end) {
		return false
	}
	return true
}
