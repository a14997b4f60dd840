// Package output handles file naming, writing, and ZIP packaging for
// export artifacts. Filenames are a pure function of the task's position
// and title chain, independent of planner internals.
package output

import (
	"fmt"
	"strings"
	"unicode"
)

// maxStemRunes bounds the filename stem so deep title chains stay within
// filesystem limits.
const maxStemRunes = 120

// BuildFilename combines a task's 0-based index (rendered as a zero-padded
// 1-based ordinal), its parent-title chain, and its own title into one
// sanitized hierarchical filename. Consecutive duplicate components are
// dropped, so a chapter named after its parent doesn't repeat it.
func BuildFilename(index int, parentTitles []string, title, ext string) string {
	components := []string{fmt.Sprintf("%02d", index+1)}

	prev := ""
	for _, t := range append(append([]string{}, parentTitles...), title) {
		s := sanitize(t)
		if s == "" || s == prev {
			continue
		}
		components = append(components, s)
		prev = s
	}

	stem := strings.Join(components, "_")
	if runes := []rune(stem); len(runes) > maxStemRunes {
		stem = string(runes[:maxStemRunes])
	}
	return stem + ext
}

// sanitize replaces filesystem-hostile characters with underscores,
// keeping letters and digits of any script, and collapses the result.
func sanitize(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, ch := range s {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			b.WriteRune(ch)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
