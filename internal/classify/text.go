package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s with Norwegian case rules after NFC normalization, so
// composed and decomposed "ø"/"å"/"æ" compare equal.
func Fold(s string) string {
	return cases.Lower(language.Norwegian).String(norm.NFC.String(s))
}

// foldTrim folds s and strips surrounding whitespace
func foldTrim(s string) string {
	return strings.TrimSpace(Fold(s))
}
