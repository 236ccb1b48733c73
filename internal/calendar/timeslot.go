package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedSlot is returned when a slot name does not match "HH:MM-HH:MM".
// Parsing fails fast here so that invalid times never reach date construction.
var ErrMalformedSlot = errors.New("malformed time slot")

// SlotBounds holds a slot's start and end as minutes since midnight.
type SlotBounds struct {
	StartMinute int
	EndMinute   int
}

// Duration returns the slot length in minutes.
func (b SlotBounds) Duration() int {
	return b.EndMinute - b.StartMinute
}

// ParseTimeSlot parses a slot name of the form "HH:MM-HH:MM" (24-hour).
// The end must be strictly after the start.
func ParseTimeSlot(name string) (SlotBounds, error) {
	parts := strings.Split(name, "-")
	if len(parts) != 2 {
		return SlotBounds{}, fmt.Errorf("%w: %q", ErrMalformedSlot, name)
	}

	start, err := parseClock(parts[0])
	if err != nil {
		return SlotBounds{}, fmt.Errorf("%w: %q", ErrMalformedSlot, name)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return SlotBounds{}, fmt.Errorf("%w: %q", ErrMalformedSlot, name)
	}

	if end <= start {
		return SlotBounds{}, fmt.Errorf("%w: %q", ErrMalformedSlot, name)
	}

	return SlotBounds{StartMinute: start, EndMinute: end}, nil
}

func parseClock(raw string) (int, error) {
	pieces := strings.Split(raw, ":")
	if len(pieces) != 2 || len(pieces[0]) != 2 || len(pieces[1]) != 2 {
		return 0, fmt.Errorf("bad clock %q", raw)
	}
	hour, err := strconv.Atoi(pieces[0])
	if err != nil {
		return 0, err
	}
	minute, err := strconv.Atoi(pieces[1])
	if err != nil {
		return 0, err
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock out of range %q", raw)
	}
	return hour*60 + minute, nil
}
