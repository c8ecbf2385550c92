package app

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

const maxPreviewRunes = 80

// formatThreadTime renders a list timestamp: clock time for today, relative
// time within the last week, otherwise month and day.
func formatThreadTime(t time.Time, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	local := t.In(now.Location())
	ly, lm, ld := local.Date()
	ny, nm, nd := now.Date()
	if ly == ny && lm == nm && ld == nd {
		return local.Format("3:04 PM")
	}

	if now.Sub(t) < 7*24*time.Hour {
		return humanize.RelTime(t, now, "ago", "from now")
	}

	return local.Format("Jan 2")
}

func formatMessagePreview(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) <= maxPreviewRunes {
		return content
	}

	runes := []rune(content)
	return string(runes[:maxPreviewRunes-3]) + "..."
}
