// Package entities holds the medication catalog model and the dose calculation result.
package entities

import "strings"

// Medication is one catalog record. Records are immutable once loaded.
type Medication struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Aliases        []string        `json:"aliases,omitempty"`
	DosingProfiles []DosingProfile `json:"dosingProfiles"`
	Concentration  Concentration   `json:"concentration"`
	Categories     []string        `json:"categories,omitempty"`
	Enabled        bool            `json:"enabled"`
	Notes          []string        `json:"notes,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"`

	// Pre-computed at load time: accent-folded, lowercased name and aliases
	SearchTerms []string `json:"-"`

	// Version of the catalog this record was published in, set by the catalog store
	CatalogVersion uint64 `json:"-"`
}

// HasCategory reports whether the medication is tagged with the given complaint category.
// Tags are compared case-insensitively.
func (m *Medication) HasCategory(category string) bool {
	category = strings.TrimSpace(category)
	for _, c := range m.Categories {
		if strings.EqualFold(strings.TrimSpace(c), category) {
			return true
		}
	}
	return false
}
