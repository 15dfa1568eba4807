package classify

import (
	"regexp"
	"strings"
)

// PriceKeywords marks a line as price related when any of them occurs as a
// substring of the folded line text.
var PriceKeywords = []string{
	"pris", "total", "sum", "beløp", "kostnad",
	"rabatt", "kampanje", "tilbud", "kr", "kroner",
	"nok", "%", "prosent",
}

// pricePatterns are searched anywhere in the line text
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d{1,3}(?: \d{3})*,-`),             // 12 345,-
	regexp.MustCompile(`(?i)\d+[.,]\d{2}`),                     // 1234,50
	regexp.MustCompile(`(?i)\d+[.,]\d{2}\s*(?:kr|nok|kroner)`), // 1234,50 kr
	regexp.MustCompile(`(?i)\d+\s*(?:kr|nok|kroner)`),          // 1234 kr
	regexp.MustCompile(`(?i)\d+%`),
}

var separatorStripper = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	"\u2009", "",
	"\u202f", "",
	",", "",
	".", "",
)

// IsNumeric reports whether text is an amount as printed in a price column:
// digits with optional space grouping, decimal separators and a trailing
// ",-" or "-" suffix. Percentages are not numeric.
func IsNumeric(text string) bool {
	s := strings.TrimSpace(text)
	switch {
	case strings.HasSuffix(s, ",-"):
		s = strings.TrimSuffix(s, ",-")
	case strings.HasSuffix(s, "-"):
		s = strings.TrimSuffix(s, "-")
	}
	s = separatorStripper.Replace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MatchesPricePhrase reports whether a line of text carries price
// information, either through a keyword or an amount pattern.
func MatchesPricePhrase(text string) bool {
	folded := Fold(text)
	for _, kw := range PriceKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	for _, re := range pricePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
