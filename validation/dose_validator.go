package validation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/giygas/pediatric-dosing-api/medications/entities"
)

// Safety limits applied to every calculation
const (
	MinPlausibleWeightKg = 0.5
	MaxPlausibleWeightKg = 200.0
	NeonatalWeightKg     = 2.0
	MaxPediatricWeightKg = 100.0

	MaxPlausibleAgeMonths = 1200.0
	NeonatalAgeMonths     = 1.0
	AdultAgeMonths        = 216.0

	MaxAbsoluteDoseMg   = 50000.0
	MinMeaningfulDoseMg = 0.001
)

// ValidationResult collects hard errors and soft warnings of one check.
// IsValid is false as soon as one error has been recorded.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newValidationResult() *ValidationResult {
	return &ValidationResult{
		IsValid:  true,
		Errors:   []string{},
		Warnings: []string{},
	}
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.IsValid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// formatNumber prints a float without trailing zeros (10, 2.5, 0.25)
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ValidateWeight checks a patient weight in kilograms
func ValidateWeight(weight float64) *ValidationResult {
	result := newValidationResult()

	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		result.addError("Weight must be a finite number")
		return result
	}

	if weight <= 0 {
		result.addError("Weight must be greater than 0")
		return result
	}

	if weight < MinPlausibleWeightKg {
		result.addWarning("Weight is below %skg - please verify the value", formatNumber(MinPlausibleWeightKg))
	}
	if weight > MaxPlausibleWeightKg {
		result.addWarning("Weight exceeds %skg - please verify the value", formatNumber(MaxPlausibleWeightKg))
	}
	if weight < NeonatalWeightKg {
		result.addWarning("Weight below %skg - neonatal dosing may require special consideration", formatNumber(NeonatalWeightKg))
	}
	if weight > MaxPediatricWeightKg {
		result.addWarning("Weight exceeds typical pediatric range (%skg)", formatNumber(MaxPediatricWeightKg))
	}

	return result
}

// ValidateAge checks a patient age in months
func ValidateAge(ageMonths float64) *ValidationResult {
	result := newValidationResult()

	if math.IsNaN(ageMonths) || math.IsInf(ageMonths, 0) {
		result.addError("Age must be a finite number")
		return result
	}

	if ageMonths < 0 {
		result.addError("Age cannot be negative")
		return result
	}

	if ageMonths > MaxPlausibleAgeMonths {
		result.addWarning("Age exceeds %s months - please verify the value", formatNumber(MaxPlausibleAgeMonths))
	}
	if ageMonths < NeonatalAgeMonths {
		result.addWarning("Age under 1 month - neonatal dosing may require special consideration")
	}
	if ageMonths > AdultAgeMonths {
		result.addWarning("Age over 18 years - consider adult dosing guidelines")
	}

	return result
}

// ValidateAgeForMedication checks an age against the window of the selected profile.
// Falling below the minimum is an error; reaching the maximum only warns.
func ValidateAgeForMedication(ageMonths float64, medication *entities.Medication, profile *entities.DosingProfile) *ValidationResult {
	result := newValidationResult()
	if profile == nil {
		return result
	}

	name := "this medication"
	if medication != nil && medication.Name != "" {
		name = medication.Name
	}

	if profile.MinAge != nil && ageMonths < *profile.MinAge {
		result.addError("Patient age (%s months) is below the minimum age of %s months for %s",
			formatNumber(ageMonths), formatNumber(*profile.MinAge), name)
	}

	if profile.MaxAge != nil && ageMonths >= *profile.MaxAge {
		result.addWarning("Patient age (%s months) is at or above the maximum age of %s months for %s",
			formatNumber(ageMonths), formatNumber(*profile.MaxAge), name)
	}

	return result
}

// ValidateDose checks a final milligram dose against the absolute safety limits
func ValidateDose(doseMg float64, medication *entities.Medication) *ValidationResult {
	result := newValidationResult()

	if math.IsNaN(doseMg) || math.IsInf(doseMg, 0) {
		result.addError("Calculated dose must be a finite number")
		return result
	}

	if doseMg <= 0 {
		result.addError("Calculated dose must be greater than 0")
		return result
	}

	if doseMg > MaxAbsoluteDoseMg {
		result.addError("Calculated dose of %.2fmg exceeds the absolute safety limit of %smg",
			doseMg, formatNumber(MaxAbsoluteDoseMg))
		return result
	}

	if doseMg < MinMeaningfulDoseMg {
		result.addWarning("Calculated dose is below %smg - please verify the medication settings",
			formatNumber(MinMeaningfulDoseMg))
	}

	return result
}
