package question

import (
	"sort"
	"strings"
)

// NormalizeAnswer canonicalizes a learner's letter selection: letters are
// upper-cased, de-duplicated, and sorted, and anything that is not a letter
// A-F is dropped. Callers (UI, CLI) use it before submitting so that
// multi-select answers match the stored order of the answer key.
func NormalizeAnswer(raw string) string {
	seen := make(map[rune]bool)
	var letters []rune
	for _, r := range strings.ToUpper(raw) {
		if r < 'A' || r > 'F' || seen[r] {
			continue
		}
		seen[r] = true
		letters = append(letters, r)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	return string(letters)
}

// CheckAnswer reports whether the submitted answer matches the stored answer
// key exactly. No set normalization happens here: "CB" does not match "BC".
func CheckAnswer(submitted string, q *Question) bool {
	if q == nil || submitted == "" {
		return false
	}
	return submitted == q.CorrectAnswer
}

// ToggleLetter adds letter to or removes it from a selection and returns
// the normalized result.
func ToggleLetter(selection, letter string) string {
	letter = strings.ToUpper(letter)
	if strings.Contains(selection, letter) {
		return NormalizeAnswer(strings.ReplaceAll(selection, letter, ""))
	}
	return NormalizeAnswer(selection + letter)
}
