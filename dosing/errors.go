// Package dosing computes pediatric doses from a medication's dosing profiles and
// converts them into an administration volume. Every entry point is a pure in-memory
// computation; hard errors are reported inside the CalculationResult, never raised.
package dosing

import "errors"

var (
	// ErrNoSuitableProfile means no profile's age window contains the patient's age
	ErrNoSuitableProfile = errors.New("no suitable dosing profile")

	// ErrNoMatchingTier means the patient's weight falls outside every tier of a weight-tiered profile
	ErrNoMatchingTier = errors.New("no matching weight tier")

	// ErrUnsupportedConcentrationUnit means the concentration unit cannot be converted to mg per ml
	ErrUnsupportedConcentrationUnit = errors.New("unsupported concentration unit")

	// ErrMedicationNotFound means the catalog holds no medication with the requested id
	ErrMedicationNotFound = errors.New("medication not found")

	// ErrMedicationDisabled means the medication exists but is switched off in the catalog
	ErrMedicationDisabled = errors.New("medication disabled")
)
