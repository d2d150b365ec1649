package storage

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/BerylCAtieno/document-assistant/internal/models"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

var nonASCII = runes.Predicate(func(r rune) bool {
	return r > unicode.MaxASCII
})

var namePartReplacer = strings.NewReplacer(" ", "_", "/", "_")

// SecureFilename reduces name to a flat ASCII filename that is safe to join
// with the upload directory. It may return an empty string.
func SecureFilename(name string) string {
	// Chains keep internal state, so each call builds its own.
	fold := transform.Chain(norm.NFKD, runes.Remove(nonASCII))
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	folded = strings.ReplaceAll(folded, "/", " ")
	folded = strings.ReplaceAll(folded, `\`, " ")
	folded = strings.Join(strings.Fields(folded), "_")
	folded = unsafeFilenameChars.ReplaceAllString(folded, "")

	return strings.Trim(folded, "._")
}

// BuildNewName composes "<title>-<detail>-<suffix><ext>" from an analysis
// result. Spaces and slashes in title and detail become underscores; the
// detail itself is otherwise taken as the model wrote it.
func BuildNewName(result *models.AnalysisResult, ext, suffix string) string {
	title := namePartReplacer.Replace(result.TitleOrDefault())
	detail := namePartReplacer.Replace(result.DetailOrDefault())
	return fmt.Sprintf("%s-%s-%s%s", title, detail, suffix, ext)
}
