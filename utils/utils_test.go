package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"admin", "student"}, "admin"))
	assert.False(t, ContainsString([]string{"student"}, "admin"))
	assert.False(t, ContainsString(nil, "admin"))
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatClock(0))
	assert.Equal(t, "00:00:59", FormatClock(59.9))
	assert.Equal(t, "00:30:00", FormatClock(1800))
	assert.Equal(t, "01:01:01", FormatClock(3661))
	assert.Equal(t, "00:00:00", FormatClock(-5))
}
