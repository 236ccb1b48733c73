package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeSlot(t *testing.T) {
	bounds, err := ParseTimeSlot("10:00-11:30")
	require.NoError(t, err)
	assert.Equal(t, 600, bounds.StartMinute)
	assert.Equal(t, 690, bounds.EndMinute)
	assert.Equal(t, 90, bounds.Duration())
}

func TestParseTimeSlotMalformed(t *testing.T) {
	cases := []string{
		"",
		"10:00",
		"10:00-11:30-12:00",
		"25:00-26:00",
		"10:60-11:00",
		"ten:00-11:00",
		"9:00-10:00",
		"10:00–11:30",
	}
	for _, name := range cases {
		_, err := ParseTimeSlot(name)
		require.Error(t, err, "expected %q to be rejected", name)
		assert.ErrorIs(t, err, ErrMalformedSlot)
	}
}

func TestParseTimeSlotRejectsInvertedBounds(t *testing.T) {
	_, err := ParseTimeSlot("11:30-10:00")
	require.ErrorIs(t, err, ErrMalformedSlot)

	_, err = ParseTimeSlot("10:00-10:00")
	require.ErrorIs(t, err, ErrMalformedSlot)
}
