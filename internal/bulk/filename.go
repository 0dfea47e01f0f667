package bulk

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxTitleRunes = 50

// SanitizeTitle folds a request title into something safe for a file name:
// accents are stripped, separators become underscores and anything else
// outside [A-Za-z0-9_-] is dropped.
func SanitizeTitle(title string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		title,
	)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-'):
			b.WriteRune(r)
			lastUnderscore = false
		case unicode.IsSpace(r) || r == '_' || r == '.' || r == '/':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
		if b.Len() >= maxTitleRunes {
			break
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "untitled"
	}
	return out
}

// ImageName is the archive entry name of the job at sequence.
func ImageName(sequence int, title string) string {
	return fmt.Sprintf("%03d_%s.png", sequence, SanitizeTitle(title))
}

// FolderName groups one request's files inside a multi-request archive.
func FolderName(id int64, title string) string {
	return fmt.Sprintf("%d_%s", id, SanitizeTitle(title))
}
