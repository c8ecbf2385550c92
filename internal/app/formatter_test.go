package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatThreadTime(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, "9:15 AM", formatThreadTime(time.Date(2024, 3, 10, 9, 15, 0, 0, time.UTC), now))
	assert.Equal(t, "2 days ago", formatThreadTime(now.Add(-48*time.Hour), now))
	assert.Equal(t, "Jul 21", formatThreadTime(time.Date(2023, 7, 21, 9, 15, 0, 0, time.UTC), now))
	assert.Empty(t, formatThreadTime(time.Time{}, now))
}

func TestFormatMessagePreview(t *testing.T) {
	assert.Equal(t, "Hi there! How are you?", formatMessagePreview("  Hi there!\n\nHow   are you?  "))

	long := strings.Repeat("a", 200)
	preview := formatMessagePreview(long)
	assert.Len(t, []rune(preview), maxPreviewRunes)
	assert.True(t, strings.HasSuffix(preview, "..."))

	assert.Equal(t, "", formatMessagePreview(""))
}
