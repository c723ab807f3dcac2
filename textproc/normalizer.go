package textproc

import (
	"regexp"
	"strings"
)

var (
	lawPattern          = regexp.MustCompile(`(?i)Lei\s+(?:Federal\s+)?n?º?\s*(\d+\.?\d*)/(\d{2,4})`)
	decreePattern       = regexp.MustCompile(`(?i)Decreto\s+(?:Federal\s+)?n?º?\s*(\d+\.?\d*)/(\d{2,4})`)
	constitutionPattern = regexp.MustCompile(`(?i)(?:CF|Constituição\s+Federal)(?:\s+de\s+\d{4})?`)
	articlePattern      = regexp.MustCompile(`(?i)art(?:igo)?\.?\s*(\d+)`)
	paragraphPattern    = regexp.MustCompile(`(?i)§\s*(\d+)º?`)
	itemPattern         = regexp.MustCompile(`(?i)inciso\s+([IVXLCDM]+|\d+)`)

	articleWordPattern   = regexp.MustCompile(`(?i)artigo\s+`)
	repeatedPunctPattern = regexp.MustCompile(`([.!?]){2,}`)

	legalPatterns = []*regexp.Regexp{lawPattern, decreePattern, constitutionPattern, articlePattern, paragraphPattern, itemPattern}

	noisePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*Página\s+\d+\s*de\s+\d+\s*$`),
		regexp.MustCompile(`(?m)^\s*\d+\s*$`), // page numbers
		regexp.MustCompile(`_{3,}`),
		regexp.MustCompile(`-{3,}`),
		regexp.MustCompile(`\s{3,}`),
	}
)

// Clean removes pagination artifacts and normalizes whitespace and legal citations.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	for _, p := range noisePatterns {
		text = p.ReplaceAllString(text, " ")
	}

	text = strings.Join(strings.Fields(text), " ")
	text = NormalizeCitations(text)
	text = repeatedPunctPattern.ReplaceAllString(text, "$1")

	return strings.TrimSpace(text)
}

// NormalizeCitations rewrites law references to the canonical "Lei N/YYYY" form
// and "artigo" to "art.". Two-digit years above 50 are read as 19xx, the rest as 20xx.
func NormalizeCitations(text string) string {
	text = lawPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := lawPattern.FindStringSubmatch(match)
		if groups == nil {
			return match
		}
		return "Lei " + strings.ReplaceAll(groups[1], ".", "") + "/" + ExpandYear(groups[2])
	})
	return articleWordPattern.ReplaceAllString(text, "art. ")
}

// ExpandYear converts a two-digit year to four digits. Other lengths are returned unchanged.
func ExpandYear(year string) string {
	if len(year) != 2 {
		return year
	}
	if year > "50" {
		return "19" + year
	}
	return "20" + year
}

// hasLegalReference reports whether the sentence cites any law, decree,
// constitution, article, paragraph or item.
func hasLegalReference(sentence string) bool {
	for _, p := range legalPatterns {
		if p.MatchString(sentence) {
			return true
		}
	}
	return false
}
