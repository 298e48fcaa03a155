package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Vovarama1992/cableposter/internal/models"
	"golang.org/x/text/unicode/norm"
)

const maxCaptionRunes = 280

// Caption renders "<title>\nBy: <author>\n<url>\nVia: <label>".
// Only the title is shortened when the text is over the platform limit.
func Caption(rec models.MediaRecord, label string) string {
	title := norm.NFC.String(strings.TrimSpace(rec.Title))

	tail := fmt.Sprintf("\nBy: %s\n%s", norm.NFC.String(rec.Author), rec.URL)
	if label != "" {
		tail += "\nVia: " + label
	}

	if utf8.RuneCountInString(title)+utf8.RuneCountInString(tail) <= maxCaptionRunes {
		return title + tail
	}

	budget := maxCaptionRunes - utf8.RuneCountInString(tail) - 1
	if budget <= 0 {
		return string([]rune(title + tail)[:maxCaptionRunes])
	}
	return string([]rune(title)[:budget]) + "…" + tail
}
