// Package sla holds the deadline, calendar and classification logic the
// ticket lifecycle anchors its clocks to.
package sla

import (
	"time"

	"github.com/rickar/cal/v2"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// Calendar answers working-day questions for business-hours arithmetic.
// Workday flags and holidays are delegated to rickar/cal; the per-day
// [start, end) windows come from the stored day rules.
type Calendar struct {
	rules [7]domain.DayRule
	bc    *cal.BusinessCalendar
	loc   *time.Location
}

// NewCalendar builds a calendar from seven day rules and a holiday set.
// Missing day rules default to non-working days.
func NewCalendar(rules []domain.DayRule, holidays []domain.Holiday, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	c := &Calendar{bc: cal.NewBusinessCalendar(), loc: loc}
	for d := 0; d < 7; d++ {
		c.bc.SetWorkday(time.Weekday(d), false)
	}
	for _, rule := range rules {
		if rule.DayOfWeek < 0 || rule.DayOfWeek > 6 {
			continue
		}
		c.rules[rule.DayOfWeek] = rule
		c.bc.SetWorkday(time.Weekday(rule.DayOfWeek), rule.IsWorkingDay)
	}
	for _, h := range holidays {
		holiday := &cal.Holiday{
			Name:  h.Name,
			Type:  cal.ObservancePublic,
			Month: h.Date.Month(),
			Day:   h.Date.Day(),
			Func:  cal.CalcDayOfMonth,
		}
		if !h.IsRecurring {
			holiday.StartYear = h.Date.Year()
			holiday.EndYear = h.Date.Year()
		}
		c.bc.AddHoliday(holiday)
	}
	return c
}

// Location returns the calendar's configured zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// HasWorkingMinutes reports whether any weekday contributes working time.
// A week with zero working minutes can never satisfy a business-hours
// deadline and must surface as a calendar gap.
func (c *Calendar) HasWorkingMinutes() bool {
	for _, rule := range c.rules {
		if rule.WorkingMinutes() > 0 {
			return true
		}
	}
	return false
}

// IsWorkingDay reports whether the date is a working day and not a holiday.
func (c *Calendar) IsWorkingDay(t time.Time) bool {
	return c.bc.IsWorkday(t.In(c.loc))
}

// Window returns the working window [start, end) for t's date. The zero
// window (start == end) means the day contributes no working minutes.
func (c *Calendar) Window(t time.Time) (time.Time, time.Time) {
	t = t.In(c.loc)
	rule := c.rules[int(t.Weekday())]
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
	start := midnight.Add(time.Duration(rule.StartMinute) * time.Minute)
	end := midnight.Add(time.Duration(rule.EndMinute) * time.Minute)
	if end.Before(start) {
		end = start
	}
	return start, end
}
