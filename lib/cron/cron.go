// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed cron expression. Use Parse to create one, then
// call Next to compute the next matching time.
type Schedule struct {
	minutes     bitset64
	hours       bitset64
	daysOfMonth bitset64
	months      bitset64
	daysOfWeek  bitset64

	// anyDayOfMonth and anyDayOfWeek record wildcard day fields, which
	// switch day matching between AND and OR.
	anyDayOfMonth bool
	anyDayOfWeek  bool

	location *time.Location
}

// bitset64 uses a uint64 as a compact set of integers 0-63.
type bitset64 uint64

func (b bitset64) has(value int) bool { return b&(1<<uint(value)) != 0 }
func (b *bitset64) set(value int)     { *b |= 1 << uint(value) }

var shortcuts = map[string]string{
	"@hourly":   "0 * * * *",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@weekly":   "0 0 * * 0",
}

// Parse parses a 5-field cron expression or one of the @ shortcuts.
func Parse(expression string) (Schedule, error) {
	trimmed := strings.TrimSpace(expression)
	if expanded, ok := shortcuts[strings.ToLower(trimmed)]; ok {
		trimmed = expanded
	} else if strings.HasPrefix(trimmed, "@") {
		return Schedule{}, fmt.Errorf("cron: unknown shortcut %q", trimmed)
	}

	fields := strings.Fields(trimmed)
	if len(fields) != 5 {
		return Schedule{}, fmt.Errorf("cron: expected 5 fields, got %d", len(fields))
	}

	minutes, err := parseField(fields[0], 0, 59)
	if err != nil {
		return Schedule{}, fmt.Errorf("cron: minute field: %w", err)
	}
	hours, err := parseField(fields[1], 0, 23)
	if err != nil {
		return Schedule{}, fmt.Errorf("cron: hour field: %w", err)
	}
	daysOfMonth, err := parseField(fields[2], 1, 31)
	if err != nil {
		return Schedule{}, fmt.Errorf("cron: day-of-month field: %w", err)
	}
	months, err := parseField(fields[3], 1, 12)
	if err != nil {
		return Schedule{}, fmt.Errorf("cron: month field: %w", err)
	}
	daysOfWeek, err := parseField(fields[4], 0, 6)
	if err != nil {
		return Schedule{}, fmt.Errorf("cron: day-of-week field: %w", err)
	}

	return Schedule{
		minutes:       minutes,
		hours:         hours,
		daysOfMonth:   daysOfMonth,
		months:        months,
		daysOfWeek:    daysOfWeek,
		anyDayOfMonth: fields[2] == "*",
		anyDayOfWeek:  fields[4] == "*",
		location:      time.UTC,
	}, nil
}

// Daily returns a schedule firing once a day at hour:minute.
func Daily(hour, minute int) (Schedule, error) {
	return Parse(fmt.Sprintf("%d %d * * *", minute, hour))
}

// In returns a copy of the schedule evaluated in location. A nil
// location means UTC.
func (s Schedule) In(location *time.Location) Schedule {
	if location == nil {
		location = time.UTC
	}
	s.location = location
	return s
}

// Location reports the zone the schedule is evaluated in.
func (s Schedule) Location() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}

// Next returns the earliest time strictly after t that matches the
// schedule, expressed in the schedule's location.
//
// Returns an error if nothing matches within 4 years of t, which is
// the case for impossible dates such as Feb 31.
func (s Schedule) Next(t time.Time) (time.Time, error) {
	location := s.Location()
	t = t.In(location).Truncate(time.Minute).Add(time.Minute)
	limit := t.AddDate(4, 0, 0)

	for t.Before(limit) {
		if !s.months.has(int(t.Month())) {
			t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, location)
			continue
		}
		if !s.dayMatches(t) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, location)
			continue
		}
		if !s.hours.has(t.Hour()) {
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, location)
			continue
		}
		if !s.minutes.has(t.Minute()) {
			t = t.Add(time.Minute)
			continue
		}
		return t, nil
	}

	return time.Time{}, fmt.Errorf("cron: no matching time within 4 years of %s", t.Format(time.RFC3339))
}

func (s Schedule) dayMatches(t time.Time) bool {
	dayOfMonth := s.daysOfMonth.has(t.Day())
	dayOfWeek := s.daysOfWeek.has(int(t.Weekday()))
	if !s.anyDayOfMonth && !s.anyDayOfWeek {
		return dayOfMonth || dayOfWeek
	}
	return dayOfMonth && dayOfWeek
}

// parseField parses a comma-separated list of terms into a bitset.
func parseField(field string, minimum, maximum int) (bitset64, error) {
	var result bitset64
	for _, term := range strings.Split(field, ",") {
		bits, err := parseTerm(term, minimum, maximum)
		if err != nil {
			return 0, err
		}
		result |= bits
	}
	if result == 0 {
		return 0, fmt.Errorf("field %q produces empty set", field)
	}
	return result, nil
}

// parseTerm parses a single term: *, */N, V, V-V, V-V/N.
func parseTerm(term string, minimum, maximum int) (bitset64, error) {
	rangeExpression, stepExpression, hasStep := strings.Cut(term, "/")
	step := 1
	if hasStep {
		parsed, err := strconv.Atoi(stepExpression)
		if err != nil {
			return 0, fmt.Errorf("invalid step %q: %w", stepExpression, err)
		}
		if parsed <= 0 {
			return 0, fmt.Errorf("step must be positive, got %d", parsed)
		}
		step = parsed
	}

	var rangeStart, rangeEnd int
	switch startText, endText, isRange := strings.Cut(rangeExpression, "-"); {
	case rangeExpression == "*":
		rangeStart, rangeEnd = minimum, maximum
	case isRange:
		var err error
		if rangeStart, err = strconv.Atoi(startText); err != nil {
			return 0, fmt.Errorf("invalid range start %q: %w", startText, err)
		}
		if rangeEnd, err = strconv.Atoi(endText); err != nil {
			return 0, fmt.Errorf("invalid range end %q: %w", endText, err)
		}
		if rangeStart > rangeEnd {
			return 0, fmt.Errorf("range start %d > end %d", rangeStart, rangeEnd)
		}
	default:
		value, err := strconv.Atoi(rangeExpression)
		if err != nil {
			return 0, fmt.Errorf("invalid value %q: %w", rangeExpression, err)
		}
		rangeStart, rangeEnd = value, value
		if hasStep {
			rangeEnd = maximum
		}
	}

	if rangeStart < minimum || rangeEnd > maximum {
		return 0, fmt.Errorf("value out of range [%d-%d]: got %d-%d", minimum, maximum, rangeStart, rangeEnd)
	}

	var result bitset64
	for value := rangeStart; value <= rangeEnd; value += step {
		result.set(value)
	}
	return result, nil
}
