// Package validation provides dose input validation and catalog schema validation
// for the pediatric dosing API.
package validation

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/giygas/pediatric-dosing-api/interfaces"
	"github.com/giygas/pediatric-dosing-api/logging"
	"github.com/giygas/pediatric-dosing-api/medications/entities"
)

// Pre-compiled regex patterns, compiled once at package initialization
var (
	// Search input: any letter (accents included), digits and safe punctuation
	inputRegex = regexp.MustCompile(`^[\p{L}0-9\s\-\.\+']+$`)

	// Medication ids are lowercase slugs
	medicationIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,63}$`)

	// Substring checks are cheaper than regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"eval(", "expression(", "url(", "@import",
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(",
		"; ", "| ", "& ", "`", "$(", "${",
		"../", "..\\", "%2e%2e", "file://",
		"{$ne:", "{$gt:", "{$where:", "{$regex:",
	}
)

const (
	maxNameLength = 200
	maxNoteLength = 1000
	maxAgeMonths  = 1200.0
)

// CatalogValidatorImpl implements the interfaces.CatalogValidator interface
type CatalogValidatorImpl struct{}

// NewCatalogValidator creates a new catalog validator
func NewCatalogValidator() interfaces.CatalogValidator {
	return &CatalogValidatorImpl{}
}

// ValidateMedication checks that a catalog record is structurally usable by the calculator
func (v *CatalogValidatorImpl) ValidateMedication(m *entities.Medication) error {
	if m == nil {
		return fmt.Errorf("medication is nil")
	}

	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("empty medication id")
	}

	if !medicationIDRegex.MatchString(m.ID) {
		return fmt.Errorf("invalid medication id %q: only lowercase letters, digits, '-' and '_' are allowed", m.ID)
	}

	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("empty name for medication %s", m.ID)
	}

	if len(m.Name) > maxNameLength {
		return fmt.Errorf("name too long for medication %s: %d characters", m.ID, len(m.Name))
	}

	for _, text := range slices.Concat(m.Notes, m.Warnings) {
		if len(text) > maxNoteLength {
			return fmt.Errorf("note or warning too long for medication %s: %d characters", m.ID, len(text))
		}
	}

	if err := validateConcentration(&m.Concentration); err != nil {
		return fmt.Errorf("invalid concentration for medication %s: %w", m.ID, err)
	}

	if len(m.DosingProfiles) == 0 {
		return fmt.Errorf("no dosing profiles for medication %s", m.ID)
	}

	for i := range m.DosingProfiles {
		if err := validateProfile(&m.DosingProfiles[i]); err != nil {
			return fmt.Errorf("invalid dosing profile %d for medication %s: %w", i, m.ID, err)
		}
	}

	return nil
}

func validateConcentration(c *entities.Concentration) error {
	if c.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got: %v", c.Amount)
	}

	if !slices.Contains(entities.ConcentrationUnits, c.Unit) {
		return fmt.Errorf("unit must be one of: %v, got: %q", entities.ConcentrationUnits, c.Unit)
	}

	// An empty formulation is allowed; it is displayed as N/A
	if c.Formulation != "" && !slices.Contains(entities.Formulations, c.Formulation) {
		return fmt.Errorf("formulation must be one of: %v, got: %q", entities.Formulations, c.Formulation)
	}

	return nil
}

func validateProfile(p *entities.DosingProfile) error {
	if p.Formula == nil {
		return fmt.Errorf("missing formula")
	}

	if !slices.Contains(entities.DoseUnits, p.Unit) {
		return fmt.Errorf("unit must be one of: %v, got: %q", entities.DoseUnits, p.Unit)
	}

	if !slices.Contains(entities.Frequencies, p.Frequency) {
		return fmt.Errorf("frequency must be one of: %v, got: %q", entities.Frequencies, p.Frequency)
	}

	if p.MinAge != nil && (*p.MinAge < 0 || *p.MinAge > maxAgeMonths) {
		return fmt.Errorf("minAge out of range: %v", *p.MinAge)
	}

	if p.MaxAge != nil && (*p.MaxAge <= 0 || *p.MaxAge > maxAgeMonths) {
		return fmt.Errorf("maxAge out of range: %v", *p.MaxAge)
	}

	if p.MinAge != nil && p.MaxAge != nil && *p.MinAge >= *p.MaxAge {
		return fmt.Errorf("minAge (%v) must be lower than maxAge (%v)", *p.MinAge, *p.MaxAge)
	}

	if p.MaxDose != nil {
		if p.MaxDose.Value <= 0 {
			return fmt.Errorf("maxDose must be positive, got: %v", p.MaxDose.Value)
		}
		if strings.TrimSpace(p.MaxDose.Unit) == "" {
			return fmt.Errorf("maxDoseUnit cannot be empty when maxDose is set")
		}
	}

	switch f := p.Formula.(type) {
	case entities.WeightBased:
		if f.Amount <= 0 {
			return fmt.Errorf("amount must be positive, got: %v", f.Amount)
		}
	case entities.FixedDose:
		return validateFlatAmount(f.Amount, f.Threshold)
	case entities.AgeBased:
		return validateFlatAmount(f.Amount, f.Threshold)
	case entities.WeightTiered:
		return validateTiers(f.Tiers)
	default:
		return entities.ErrUnsupportedFormula
	}

	return nil
}

func validateFlatAmount(amount float64, threshold *entities.WeightThreshold) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got: %v", amount)
	}
	if threshold != nil {
		if threshold.Weight <= 0 {
			return fmt.Errorf("weightThreshold must be positive, got: %v", threshold.Weight)
		}
		if threshold.AlternativeAmount <= 0 {
			return fmt.Errorf("alternativeAmount must be positive, got: %v", threshold.AlternativeAmount)
		}
	}
	return nil
}

func validateTiers(tiers []entities.WeightTier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("weight-tiered profile without tiers")
	}

	for i, tier := range tiers {
		if tier.MinWeight < 0 {
			return fmt.Errorf("tier %d: minWeight cannot be negative, got: %v", i, tier.MinWeight)
		}
		if tier.MaxWeight != nil && *tier.MaxWeight < tier.MinWeight {
			return fmt.Errorf("tier %d: maxWeight (%v) is lower than minWeight (%v)", i, *tier.MaxWeight, tier.MinWeight)
		}
		if tier.Amount <= 0 {
			return fmt.Errorf("tier %d: amount must be positive, got: %v", i, tier.Amount)
		}
	}

	return nil
}

// ValidateCatalog performs whole-catalog validation
func (v *CatalogValidatorImpl) ValidateCatalog(medications []entities.Medication) error {
	if len(medications) == 0 {
		return fmt.Errorf("no medications found")
	}

	ids := make(map[string]bool)
	for i := range medications {
		med := &medications[i]
		if ids[med.ID] {
			return fmt.Errorf("duplicate medication id found: %s", med.ID)
		}
		ids[med.ID] = true

		if err := v.ValidateMedication(med); err != nil {
			return fmt.Errorf("invalid medication %s: %w", med.ID, err)
		}
	}

	return nil
}

// ReportCatalogQuality lists catalog issues that do not prevent loading
func (v *CatalogValidatorImpl) ReportCatalogQuality(medications []entities.Medication) *interfaces.CatalogQualityReport {
	report := &interfaces.CatalogQualityReport{
		TotalRecords:                    len(medications),
		RejectedMedicationIDs:           []string{},
		DuplicateIDs:                    []string{},
		MedicationsWithoutCategoriesIDs: []string{},
		TierCoverageGapIDs:              []string{},
	}

	// Check 1: duplicate ids
	ids := make(map[string]bool)
	for _, med := range medications {
		if ids[med.ID] {
			report.DuplicateIDs = append(report.DuplicateIDs, med.ID)
		}
		ids[med.ID] = true
	}

	for _, med := range medications {
		// Check 2: disabled records
		if !med.Enabled {
			report.DisabledMedications++
		}

		// Check 3: medications without categories (store first 10 ids)
		if len(med.Categories) == 0 {
			report.MedicationsWithoutCategories++
			if len(report.MedicationsWithoutCategoriesIDs) < 10 {
				report.MedicationsWithoutCategoriesIDs = append(report.MedicationsWithoutCategoriesIDs, med.ID)
			}
		}

		// Check 4: profiles without a ceiling, and holes between weight tiers
		hasGap := false
		for _, profile := range med.DosingProfiles {
			if profile.MaxDose == nil {
				report.ProfilesWithoutMaxDose++
			}
			if tiered, ok := profile.Formula.(entities.WeightTiered); ok && len(TierCoverageGaps(tiered.Tiers)) > 0 {
				hasGap = true
			}
		}
		if hasGap {
			report.TierCoverageGaps++
			report.TierCoverageGapIDs = append(report.TierCoverageGapIDs, med.ID)
		}
	}

	return report
}

// WeightGap is an uncovered weight interval between two tiers
type WeightGap struct {
	From float64 // exclusive
	To   float64 // exclusive
}

// TierCoverageGaps returns the weight intervals above the lowest tier that no tier covers.
// A patient whose weight falls in one of them cannot be dosed by the profile.
func TierCoverageGaps(tiers []entities.WeightTier) []WeightGap {
	sorted := slices.Clone(tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinWeight < sorted[j].MinWeight })

	var gaps []WeightGap
	for i := 0; i < len(sorted)-1; i++ {
		upper := sorted[i].MaxWeight
		if upper == nil {
			// Open-ended tier covers everything above it
			return gaps
		}
		if next := sorted[i+1].MinWeight; next > *upper {
			gaps = append(gaps, WeightGap{From: *upper, To: next})
		}
	}

	return gaps
}

// ValidateInput validates free-text search input
func (v *CatalogValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len(input) < 2 {
		return fmt.Errorf("input too short: minimum 2 characters")
	}

	if len(input) > 50 {
		return fmt.Errorf("input too long: maximum 50 characters")
	}

	if words := strings.Fields(input); len(words) > 6 {
		return fmt.Errorf("search query too complex: maximum 6 words allowed")
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			logging.Warn("Dangerous search input rejected", "pattern", pattern)
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces, hyphens, apostrophes, periods and plus sign are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateMedicationID validates a medication id taken from a request path
func (v *CatalogValidatorImpl) ValidateMedicationID(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("medication id cannot be empty")
	}

	if len(input) != len(trimmed) {
		return "", fmt.Errorf("medication id contains invalid characters")
	}

	if !medicationIDRegex.MatchString(trimmed) {
		return "", fmt.Errorf("medication id contains invalid characters. Only lowercase letters, digits, '-' and '_' are allowed")
	}

	return trimmed, nil
}

// hasExcessiveRepetition checks for the same character repeated more than 10 times in a row
func hasExcessiveRepetition(input string) bool {
	run := 1
	for i := 1; i < len(input); i++ {
		if input[i] == input[i-1] {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		run = 1
	}
	return false
}
