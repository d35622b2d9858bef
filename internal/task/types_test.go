package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityLow, ParsePriority("low"))
	assert.Equal(t, PriorityCritical, ParsePriority(" CRITICAL "))
	assert.Equal(t, PriorityHigh, ParsePriority("High"))

	// Unknown values fall back to Medium instead of failing.
	assert.Equal(t, PriorityMedium, ParsePriority("urgent"))
	assert.Equal(t, PriorityMedium, ParsePriority(""))
}

func TestParseType(t *testing.T) {
	assert.Equal(t, TypeDataProcessing, ParseType("dataprocessing"))
	assert.Equal(t, TypeBackup, ParseType("Backup"))

	// Unknown values fall back to Report.
	assert.Equal(t, TypeReport, ParseType("video-transcode"))
	assert.Equal(t, TypeReport, ParseType(""))
}

func TestPriorityLevelOrdering(t *testing.T) {
	assert.Less(t, PriorityLow.Level(), PriorityMedium.Level())
	assert.Less(t, PriorityMedium.Level(), PriorityHigh.Level())
	assert.Less(t, PriorityHigh.Level(), PriorityCritical.Level())
}

func TestValidTypeAndPriority(t *testing.T) {
	assert.True(t, ValidType("email"))
	assert.False(t, ValidType("video"))
	assert.True(t, ValidPriority("critical"))
	assert.False(t, ValidPriority("urgent"))
}
