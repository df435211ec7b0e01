package dosing

import (
	"errors"
	"fmt"
	"slices"

	"github.com/giygas/pediatric-dosing-api/interfaces"
	"github.com/giygas/pediatric-dosing-api/logging"
	"github.com/giygas/pediatric-dosing-api/medications/entities"
	"github.com/giygas/pediatric-dosing-api/metrics"
	"github.com/giygas/pediatric-dosing-api/validation"
)

// AdultDosingWeightKg is the weight above which weight-based pediatric doses get an adult dosing hint
const AdultDosingWeightKg = 40.0

// Compile-time check to ensure DoseEngine implements DoseCalculator
var _ interfaces.DoseCalculator = DoseEngine{}

// DoseEngine runs the full calculation pipeline. It holds no state.
type DoseEngine struct{}

// Calculate returns nil for a disabled medication and a fully formed result otherwise
func (DoseEngine) Calculate(medication *entities.Medication, weightKg float64, ageMonths *float64) *entities.CalculationResult {
	if medication == nil || !medication.Enabled {
		return nil
	}
	return calculatePediatricDose(medication, weightKg, ageMonths)
}

// Calculate is DoseEngine{}.Calculate
func Calculate(medication *entities.Medication, weightKg float64, ageMonths *float64) *entities.CalculationResult {
	return DoseEngine{}.Calculate(medication, weightKg, ageMonths)
}

// calculatePediatricDose validates the inputs, selects a profile, computes and caps the
// dose, then converts it to an administration volume. The first hard error ends the
// pipeline: the result is invalid and carries only that stage's errors.
func calculatePediatricDose(medication *entities.Medication, weightKg float64, ageMonths *float64) *entities.CalculationResult {
	concentration := &medication.Concentration
	result := &entities.CalculationResult{
		MedicationID: medication.ID,
		AdminUnit:    AdminUnit(concentration),
		Formulation:  concentration.Formulation,
		Warnings:     []string{},
		Notes:        slices.Clone(medication.Notes),
	}
	if result.Notes == nil {
		result.Notes = []string{}
	}

	reject := func(stage string, errs ...string) *entities.CalculationResult {
		logging.Warn("Dose calculation rejected",
			"medication_id", medication.ID,
			"stage", stage,
			"errors", errs,
		)
		metrics.DoseCalculationsTotal.WithLabelValues("rejected_" + stage).Inc()

		result.IsValid = false
		result.DoseMg = 0
		result.AdminVolume = nil
		result.Errors = errs
		result.Warnings = slices.Clone(errs)
		return result
	}

	// 1. Weight
	check := validation.ValidateWeight(weightKg)
	if !check.IsValid {
		return reject("weight", check.Errors...)
	}
	result.Warnings = append(result.Warnings, check.Warnings...)

	// 2. Age, when known
	if ageMonths != nil {
		check = validation.ValidateAge(*ageMonths)
		if !check.IsValid {
			return reject("age", check.Errors...)
		}
		result.Warnings = append(result.Warnings, check.Warnings...)
	}

	// 3. Profile
	profile, err := SelectProfile(medication, ageMonths, &weightKg)
	if err != nil {
		return reject("profile", "No suitable dosing profile found for this patient's age")
	}
	result.Frequency = profile.Frequency

	// 4. Age against the selected profile
	if ageMonths != nil {
		check = validation.ValidateAgeForMedication(*ageMonths, medication, profile)
		if !check.IsValid {
			return reject("profile_age", check.Errors...)
		}
		result.Warnings = append(result.Warnings, check.Warnings...)
	}

	// 5. Raw dose
	mgPerMl, err := MgPerMl(concentration)
	if err != nil {
		return reject("formula", fmt.Sprintf("Unsupported concentration unit: %s", concentration.Unit))
	}
	doseMg, err := ComputeDose(profile, weightKg, mgPerMl)
	if err != nil {
		return reject("formula", formulaErrorMessage(err, weightKg, profile))
	}

	// 6. Daily amount split per administration
	doseMg = PerAdministrationDose(profile, doseMg)

	// 7. Ceiling
	capped := EnforceMaxDose(profile, doseMg, weightKg)
	if capped.Capped {
		scope := "per_dose"
		if capped.Daily {
			scope = "daily"
		}
		metrics.DoseCapsTotal.WithLabelValues(scope).Inc()
		logging.Info("Dose capped",
			"medication_id", medication.ID,
			"raw_dose_mg", doseMg,
			"limit_mg", capped.LimitMg,
			"scope", scope,
		)
		doseMg = capped.DoseMg
		result.Warnings = append(result.Warnings, capped.Warning)
	}

	// 8. Final dose
	check = validation.ValidateDose(doseMg, medication)
	if !check.IsValid {
		return reject("dose", check.Errors...)
	}
	result.Warnings = append(result.Warnings, check.Warnings...)

	// 9. Static and heuristic warnings
	result.Warnings = append(result.Warnings, medication.Warnings...)
	if weightKg > AdultDosingWeightKg && profile.Kind() == entities.FormulaWeight {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Patient weight exceeds %skg - consider adult dosing", formatNumber(AdultDosingWeightKg)))
	}

	// 10. Administration volume
	result.AdminVolume = AdminVolume(doseMg, concentration)

	// 11. Result
	result.DoseMg = doseMg
	result.IsValid = doseMg > 0

	metrics.DoseCalculationsTotal.WithLabelValues("valid").Inc()
	logging.Debug("Dose calculated",
		"medication_id", medication.ID,
		"formula", profile.Kind(),
		"dose_mg", doseMg,
		"warnings", len(result.Warnings),
	)

	return result
}

// formulaErrorMessage turns a ComputeDose error into the message shown to the user
func formulaErrorMessage(err error, weightKg float64, profile *entities.DosingProfile) string {
	switch {
	case errors.Is(err, ErrNoMatchingTier):
		return fmt.Sprintf("No matching weight tier found for weight %skg", formatNumber(weightKg))
	case errors.Is(err, entities.ErrUnsupportedFormula):
		return fmt.Sprintf("Unsupported dosing formula: %q", profile.Kind())
	default:
		return fmt.Sprintf("Dose could not be computed: %v", err)
	}
}
