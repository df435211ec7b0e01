package dosing

import "github.com/giygas/pediatric-dosing-api/medications/entities"

// profilePriority orders the weight-aware formulas preferred when a weight is known
var profilePriority = []func(p *entities.DosingProfile) bool{
	func(p *entities.DosingProfile) bool { return p.Kind() == entities.FormulaWeightTiered },
	func(p *entities.DosingProfile) bool { return p.Kind() == entities.FormulaWeight },
	func(p *entities.DosingProfile) bool { return p.Threshold() != nil },
}

// SelectProfile picks the dosing profile applying to a patient. Profiles whose age
// window excludes ageMonths are skipped; a nil age leaves every profile eligible.
// With a known weight the first weight-tiered, then weight, then weight-threshold
// profile wins; otherwise the first eligible profile in catalog order.
func SelectProfile(medication *entities.Medication, ageMonths *float64, weightKg *float64) (*entities.DosingProfile, error) {
	var eligible []*entities.DosingProfile
	for i := range medication.DosingProfiles {
		profile := &medication.DosingProfiles[i]
		if ageMonths == nil || profile.MatchesAge(*ageMonths) {
			eligible = append(eligible, profile)
		}
	}

	if len(eligible) == 0 {
		return nil, ErrNoSuitableProfile
	}

	if weightKg != nil {
		for _, matches := range profilePriority {
			for _, profile := range eligible {
				if matches(profile) {
					return profile, nil
				}
			}
		}
	}

	return eligible[0], nil
}
