package medications

import (
	"strings"
	"unicode"

	"github.com/giygas/pediatric-dosing-api/medications/entities"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s and strips diacritics so "Paracétamol" matches "paracetamol"
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func searchTerms(med *entities.Medication) []string {
	terms := make([]string, 0, len(med.Aliases)+1)
	terms = append(terms, Normalize(med.Name))
	for _, alias := range med.Aliases {
		terms = append(terms, Normalize(alias))
	}
	return terms
}

// Search returns the enabled medications whose name or an alias contains term.
// Matching ignores case and accents.
func Search(medications []entities.Medication, term string) []entities.Medication {
	needle := Normalize(term)
	results := []entities.Medication{}
	if needle == "" {
		return results
	}

	for _, med := range medications {
		if !med.Enabled {
			continue
		}

		terms := med.SearchTerms
		if terms == nil {
			terms = searchTerms(&med)
		}

		for _, candidate := range terms {
			if strings.Contains(candidate, needle) {
				results = append(results, med)
				break
			}
		}
	}

	return results
}

// FilterByCategory returns the enabled medications tagged with category.
// Matching ignores case and accents. An empty category returns every enabled medication.
func FilterByCategory(medications []entities.Medication, category string) []entities.Medication {
	results := []entities.Medication{}
	category = Normalize(category)

	for _, med := range medications {
		if !med.Enabled {
			continue
		}
		if category == "" || hasNormalizedCategory(&med, category) {
			results = append(results, med)
		}
	}

	return results
}

func hasNormalizedCategory(med *entities.Medication, category string) bool {
	for _, c := range med.Categories {
		if Normalize(c) == category {
			return true
		}
	}
	return false
}
