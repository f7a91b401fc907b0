// Package daypart classifies an event time into a named period of the day
// (morning, noon, evening, night) in the company's time zone.
package daypart

import (
	"fmt"
	"time"

	"catercost/internal/core/apperror"
	"catercost/internal/domain/label"
)

// Period is a named time-of-day bucket.
type Period int

const (
	Morning Period = iota + 1
	Noon
	Evening
	Night
)

func (p Period) String() string {
	switch p {
	case Morning:
		return "morning"
	case Noon:
		return "noon"
	case Evening:
		return "evening"
	case Night:
		return "night"
	}
	return fmt.Sprintf("period(%d)", int(p))
}

// Boundaries are minute-resolution: a period owns every second of its last minute,
// so 16:00:30 is still Noon and 20:00:59 still Evening.
const (
	morningStart = 4 * time.Hour
	noonStart    = 10*time.Hour + 46*time.Minute
	eveningStart = 16*time.Hour + 1*time.Minute
	nightStart   = 20*time.Hour + 1*time.Minute
)

// PeriodOf classifies an offset since midnight. Offsets outside [0, 24h) are
// wrapped into the day.
func PeriodOf(clock time.Duration) Period {
	day := 24 * time.Hour
	clock %= day
	if clock < 0 {
		clock += day
	}

	switch {
	case clock < morningStart:
		return Night
	case clock < noonStart:
		return Morning
	case clock < eveningStart:
		return Noon
	case clock < nightStart:
		return Evening
	default:
		return Night
	}
}

// Labels are the localized strings a report prints for each period.
type Labels struct {
	Morning string
	Noon    string
	Evening string
	Night   string
}

// For returns the label for p.
func (l Labels) For(p Period) string {
	switch p {
	case Morning:
		return l.Morning
	case Noon:
		return l.Noon
	case Evening:
		return l.Evening
	case Night:
		return l.Night
	}
	return ""
}

// TextLabels holds the period names in every language slot, as stored.
type TextLabels struct {
	Morning label.Text
	Noon    label.Text
	Evening label.Text
	Night   label.Text
}

// In resolves every period name for lang.
func (t TextLabels) In(lang label.LangType) Labels {
	return Labels{
		Morning: t.Morning.In(lang),
		Noon:    t.Noon.In(lang),
		Evening: t.Evening.In(lang),
		Night:   t.Night.In(lang),
	}
}

// Classifier buckets timestamps in a fixed company zone.
type Classifier struct {
	company *time.Location
}

// NewClassifier loads companyTZ. An empty zone means UTC.
func NewClassifier(companyTZ string) (*Classifier, error) {
	loc, err := loadLocation(companyTZ)
	if err != nil {
		return nil, err
	}
	return &Classifier{company: loc}, nil
}

// Location returns the company zone.
func (c *Classifier) Location() *time.Location {
	return c.company
}

// Local reinterprets the wall clock of ts in requestTZ and converts it to the
// company zone. ts's own location is ignored.
func (c *Classifier) Local(ts time.Time, requestTZ string) (time.Time, error) {
	reqLoc, err := loadLocation(requestTZ)
	if err != nil {
		return time.Time{}, err
	}
	wall := time.Date(ts.Year(), ts.Month(), ts.Day(),
		ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), reqLoc)
	return wall.In(c.company), nil
}

// Classify converts ts from requestTZ to the company zone and returns its period.
func (c *Classifier) Classify(ts time.Time, requestTZ string) (Period, error) {
	local, err := c.Local(ts, requestTZ)
	if err != nil {
		return 0, err
	}
	return PeriodAt(local), nil
}

// PeriodAt classifies the wall clock of t in t's own location.
func PeriodAt(t time.Time) Period {
	return PeriodOf(sinceMidnight(t))
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, apperror.NewValidation("unknown time zone").
			WithDetail("timeZone", name).
			WithCause(err)
	}
	return loc, nil
}
