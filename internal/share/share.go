// internal/share/share.go
//
// Shareable result text for a finished daily game: an emoji grid of
// the attempt history, one row per guess.

package share

import (
	"strconv"
	"strings"
	"time"

	"github.com/kkolster/unshuffle-server/internal/puzzle"
)

const playURL = "Play at unshuffle.app"

// tile maps a feedback tag to its share emoji.
func tile(t puzzle.Tag) string {
	switch t {
	case puzzle.TagExact:
		return "🟩"
	case puzzle.TagPresent:
		return "🟨"
	default:
		return "⬛"
	}
}

// Text renders the share summary for a finished game.
//
//	🎵 unshuffle Sep 1, 2025
//	✅ 2/6
//
//	🟨🟨🟩🟩🟩🟩🟩🟩
//	🟩🟩🟩🟩🟩🟩🟩🟩
//
//	Play at unshuffle.app
func Text(day time.Time, won bool, attempts, maxAttempts int, rows [][]puzzle.Tag) string {
	var b strings.Builder
	b.WriteString("🎵 unshuffle ")
	b.WriteString(day.Format("Jan 2, 2006"))
	b.WriteString("\n")
	if won {
		b.WriteString("✅ ")
		b.WriteString(strconv.Itoa(attempts))
	} else {
		b.WriteString("❌ ")
		b.WriteString(strconv.Itoa(maxAttempts))
	}
	b.WriteString("/")
	b.WriteString(strconv.Itoa(maxAttempts))
	b.WriteString("\n\n")

	for _, row := range rows {
		for _, t := range row {
			b.WriteString(tile(t))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(playURL)
	return b.String()
}
