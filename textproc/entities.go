package textproc

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	cpfPattern           = regexp.MustCompile(`\d{3}\.\d{3}\.\d{3}-\d{2}`)
	cnpjPattern          = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)
	processNumberPattern = regexp.MustCompile(`\d{7}-\d{2}\.\d{4}\.\d\.\d{2}\.\d{4}`)
	moneyPattern         = regexp.MustCompile(`(?i)R\$\s*[\d.,]+`)
	datePattern          = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`)
)

// abbreviations end with a period without ending the sentence.
var abbreviations = map[string]bool{
	"art": true, "arts": true, "inc": true, "fl": true, "fls": true, "min": true,
	"rel": true, "des": true, "dr": true, "dra": true, "sr": true, "sra": true,
	"n": true, "nº": true, "p": true, "pág": true, "proc": true, "ed": true,
}

const (
	minFactLength = 20
	maxFactLength = 200
)

// MaxFacts bounds the number of sentences returned by ExtractFacts.
const MaxFacts = 10

// Entities groups the structured references found in a text.
// Each list preserves first-occurrence order without duplicates.
type Entities struct {
	Laws           []string `json:"laws"`
	Articles       []string `json:"articles"`
	Paragraphs     []string `json:"paragraphs"`
	Items          []string `json:"items"`
	ProcessNumbers []string `json:"process_numbers"`
	MonetaryValues []string `json:"monetary_values"`
	Dates          []string `json:"dates"`
	TaxIdentifiers []string `json:"cpf_cnpj"`
}

// ExtractEntities finds legal references and identifiers in text.
// CPF and CNPJ numbers are returned anonymized.
func ExtractEntities(text string) Entities {
	var e Entities

	for _, m := range lawPattern.FindAllStringSubmatch(text, -1) {
		e.Laws = appendUnique(e.Laws, "Lei "+m[1]+"/"+m[2])
	}
	for _, m := range articlePattern.FindAllStringSubmatch(text, -1) {
		e.Articles = appendUnique(e.Articles, "Art. "+m[1])
	}
	for _, m := range paragraphPattern.FindAllStringSubmatch(text, -1) {
		e.Paragraphs = appendUnique(e.Paragraphs, "§ "+m[1])
	}
	for _, m := range itemPattern.FindAllStringSubmatch(text, -1) {
		e.Items = appendUnique(e.Items, "inciso "+strings.ToUpper(m[1]))
	}
	for _, m := range processNumberPattern.FindAllString(text, -1) {
		e.ProcessNumbers = appendUnique(e.ProcessNumbers, m)
	}
	for _, m := range moneyPattern.FindAllString(text, -1) {
		e.MonetaryValues = appendUnique(e.MonetaryValues, m)
	}
	for _, m := range datePattern.FindAllString(text, -1) {
		e.Dates = appendUnique(e.Dates, m)
	}
	for _, p := range []*regexp.Regexp{cpfPattern, cnpjPattern} {
		for _, m := range p.FindAllString(text, -1) {
			e.TaxIdentifiers = appendUnique(e.TaxIdentifiers, AnonymizeDocument(m))
		}
	}

	return e
}

// AnonymizeDocument masks the middle digits of a CPF (14 characters when
// formatted) or CNPJ, keeping only the leading group and the last three characters.
func AnonymizeDocument(doc string) string {
	if len(doc) < 5 {
		return doc
	}
	if len(doc) == 14 {
		return doc[:3] + ".***.**" + doc[len(doc)-3:]
	}
	return doc[:2] + ".***.***/****" + doc[len(doc)-3:]
}

// ExtractKeyPhrases returns up to max sentences that cite law and whose length
// is strictly between 20 and 200 characters.
func ExtractKeyPhrases(text string, max int) []string {
	if text == "" || max <= 0 {
		return nil
	}

	var phrases []string
	for _, sentence := range splitSentences(text) {
		n := len([]rune(sentence))
		if n > minFactLength && n < maxFactLength && hasLegalReference(sentence) {
			phrases = append(phrases, sentence)
		}
		if len(phrases) >= max {
			break
		}
	}
	return phrases
}

// ExtractFacts returns the candidate fact sentences of a text.
func ExtractFacts(text string) []string {
	return ExtractKeyPhrases(text, MaxFacts)
}

// splitSentences breaks text at runs of terminal punctuation followed by
// whitespace or the end of text. Periods inside numbers and after common legal
// abbreviations do not end a sentence.
func splitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0

	emit := func(end int) {
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			sentences = append(sentences, s)
		}
	}

	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		j := i
		for j < len(runes) && isTerminal(runes[j]) {
			j++
		}
		if j < len(runes) && !unicode.IsSpace(runes[j]) {
			i = j - 1
			continue
		}
		if j-i == 1 && runes[i] == '.' && abbreviations[strings.ToLower(lastWord(runes[start:i]))] {
			i = j - 1
			continue
		}
		emit(i)
		start = j
		i = j - 1
	}
	emit(len(runes))

	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func lastWord(runes []rune) string {
	i := len(runes)
	for i > 0 && !unicode.IsSpace(runes[i-1]) {
		i--
	}
	return string(runes[i:])
}

func appendUnique(items []string, v string) []string {
	for _, item := range items {
		if item == v {
			return items
		}
	}
	return append(items, v)
}
