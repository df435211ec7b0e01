package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormula is returned when a profile names a formula outside FormulaKinds
var ErrUnsupportedFormula = errors.New("unsupported dosing formula")

// FormulaKind is the catalog tag selecting how a profile computes its dose
type FormulaKind string

const (
	FormulaWeight       FormulaKind = "weight"
	FormulaAge          FormulaKind = "age"
	FormulaFixed        FormulaKind = "fixed"
	FormulaWeightTiered FormulaKind = "weight-tiered"
)

// FormulaKinds lists every formula accepted in the catalog
var FormulaKinds = []FormulaKind{FormulaWeight, FormulaAge, FormulaFixed, FormulaWeightTiered}

// DoseUnit is the unit a profile amount is expressed in
type DoseUnit string

const (
	UnitMgPerKgPerDose  DoseUnit = "mg/kg/dose"
	UnitMgPerKgPerDay   DoseUnit = "mg/kg/day"
	UnitMgPerDose       DoseUnit = "mg/dose"
	UnitMgPerDay        DoseUnit = "mg/day"
	UnitMcgPerKgPerDose DoseUnit = "mcg/kg/dose"
	UnitMcgPerKgPerDay  DoseUnit = "mcg/kg/day"
	UnitMcgPerDose      DoseUnit = "mcg/dose"
	UnitMcgPerDay       DoseUnit = "mcg/day"
	UnitMlPerKgPerDose  DoseUnit = "ml/kg/dose"
	UnitMlPerKgPerDay   DoseUnit = "ml/kg/day"
	UnitMlPerDose       DoseUnit = "ml/dose"
	UnitMlPerDay        DoseUnit = "ml/day"
)

// DoseUnits lists every dose unit accepted in the catalog
var DoseUnits = []DoseUnit{
	UnitMgPerKgPerDose, UnitMgPerKgPerDay, UnitMgPerDose, UnitMgPerDay,
	UnitMcgPerKgPerDose, UnitMcgPerKgPerDay, UnitMcgPerDose, UnitMcgPerDay,
	UnitMlPerKgPerDose, UnitMlPerKgPerDay, UnitMlPerDose, UnitMlPerDay,
}

// IsPerDay reports whether the amount is a daily total to be split across doses
func (u DoseUnit) IsPerDay() bool {
	return strings.HasSuffix(strings.ToLower(string(u)), "/day")
}

// IsMicrograms reports whether the amount is expressed in micrograms
func (u DoseUnit) IsMicrograms() bool {
	return strings.HasPrefix(strings.ToLower(string(u)), "mcg")
}

// IsVolume reports whether the amount is expressed in millilitres of product
func (u DoseUnit) IsVolume() bool {
	return strings.HasPrefix(strings.ToLower(string(u)), "ml")
}

// Frequency is the administration schedule of a profile
type Frequency string

const (
	FrequencyOD             Frequency = "OD"
	FrequencyBD             Frequency = "BD"
	FrequencyTDS            Frequency = "TDS"
	FrequencyQID            Frequency = "QID"
	FrequencyPRN            Frequency = "PRN"
	FrequencyFiveTimesDaily Frequency = "5x"
)

// Frequencies lists every frequency accepted in the catalog
var Frequencies = []Frequency{
	FrequencyOD, FrequencyBD, FrequencyTDS, FrequencyQID, FrequencyPRN, FrequencyFiveTimesDaily,
}

var dosesPerDay = map[Frequency]int{
	FrequencyOD:  1,
	FrequencyBD:  2,
	FrequencyTDS: 3,
	FrequencyQID: 4,
}

// DosesPerDay returns the number of administrations per day. Frequencies without
// a fixed daily count (PRN, 5x and unknown values) count as one.
func (f Frequency) DosesPerDay() int {
	if n, ok := dosesPerDay[f]; ok {
		return n
	}
	return 1
}

// MaxDoseScope tells whether a ceiling applies to one administration or a whole day
type MaxDoseScope int

const (
	// MaxDoseScopeUnspecified leaves the interpretation to the runtime comparison
	MaxDoseScopeUnspecified MaxDoseScope = iota
	MaxDoseScopePerDose
	MaxDoseScopeDaily
)

// MaxDose is a safety ceiling configured on a profile
type MaxDose struct {
	Value float64
	Unit  string
}

// PerKg reports whether the ceiling scales with body weight
func (m MaxDose) PerKg() bool {
	return strings.Contains(strings.ToLower(m.Unit), "/kg")
}

// Scope derives the ceiling's interpretation from its unit suffix
func (m MaxDose) Scope() MaxDoseScope {
	unit := strings.ToLower(m.Unit)
	switch {
	case strings.HasSuffix(unit, "/dose"):
		return MaxDoseScopePerDose
	case strings.HasSuffix(unit, "/day"):
		return MaxDoseScopeDaily
	default:
		return MaxDoseScopeUnspecified
	}
}

// Formula is the closed set of dose formulas. Only the types in this file implement it.
type Formula interface {
	Kind() FormulaKind
	isFormula()
}

// WeightThreshold swaps the profile amount for AlternativeAmount at or above Weight kg
type WeightThreshold struct {
	Weight            float64
	AlternativeAmount float64
}

// WeightBased doses Amount per kilogram of body weight
type WeightBased struct {
	Amount float64
}

// FixedDose doses a flat Amount
type FixedDose struct {
	Amount    float64
	Threshold *WeightThreshold
}

// AgeBased doses a flat Amount chosen for the profile's age band
type AgeBased struct {
	Amount    float64
	Threshold *WeightThreshold
}

// WeightTiered picks a flat amount from the first band containing the patient's weight
type WeightTiered struct {
	Tiers []WeightTier
}

func (WeightBased) Kind() FormulaKind  { return FormulaWeight }
func (FixedDose) Kind() FormulaKind    { return FormulaFixed }
func (AgeBased) Kind() FormulaKind     { return FormulaAge }
func (WeightTiered) Kind() FormulaKind { return FormulaWeightTiered }

func (WeightBased) isFormula()  {}
func (FixedDose) isFormula()    {}
func (AgeBased) isFormula()     {}
func (WeightTiered) isFormula() {}

// WeightTier is one band of a weight-tiered profile. A nil MaxWeight is open-ended.
type WeightTier struct {
	MinWeight float64  `json:"minWeight"`
	MaxWeight *float64 `json:"maxWeight,omitempty"`
	Amount    float64  `json:"amount"`
}

// Contains reports whether weight falls inside [MinWeight, MaxWeight]
func (t WeightTier) Contains(weight float64) bool {
	if weight < t.MinWeight {
		return false
	}
	return t.MaxWeight == nil || weight <= *t.MaxWeight
}

// DosingProfile is one dosing rule of a medication. Ages are in months and the
// window is half-open: [MinAge, MaxAge).
type DosingProfile struct {
	Formula   Formula
	Unit      DoseUnit
	Frequency Frequency
	MaxDose   *MaxDose
	MinAge    *float64
	MaxAge    *float64
}

// Kind returns the formula tag, or "" when no formula is set
func (p *DosingProfile) Kind() FormulaKind {
	if p.Formula == nil {
		return ""
	}
	return p.Formula.Kind()
}

// Threshold returns the weight override of fixed and age profiles
func (p *DosingProfile) Threshold() *WeightThreshold {
	switch f := p.Formula.(type) {
	case FixedDose:
		return f.Threshold
	case AgeBased:
		return f.Threshold
	}
	return nil
}

// MatchesAge reports whether ageMonths falls inside the profile's age window.
// A profile without bounds matches every age.
func (p *DosingProfile) MatchesAge(ageMonths float64) bool {
	if p.MinAge != nil && ageMonths < *p.MinAge {
		return false
	}
	if p.MaxAge != nil && ageMonths >= *p.MaxAge {
		return false
	}
	return true
}

// dosingProfileJSON is the flat catalog representation of a profile
type dosingProfileJSON struct {
	Formula           FormulaKind  `json:"formula"`
	Amount            *float64     `json:"amount,omitempty"`
	Unit              DoseUnit     `json:"unit"`
	Frequency         Frequency    `json:"frequency"`
	MaxDose           *float64     `json:"maxDose,omitempty"`
	MaxDoseUnit       string       `json:"maxDoseUnit,omitempty"`
	MinAge            *float64     `json:"minAge,omitempty"`
	MaxAge            *float64     `json:"maxAge,omitempty"`
	WeightThreshold   *float64     `json:"weightThreshold,omitempty"`
	AlternativeAmount *float64     `json:"alternativeAmount,omitempty"`
	WeightTiers       []WeightTier `json:"weightTiers,omitempty"`
}

// UnmarshalJSON decodes the flat catalog form into the matching formula variant
func (p *DosingProfile) UnmarshalJSON(b []byte) error {
	var raw dosingProfileJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if (raw.MaxDose == nil) != (raw.MaxDoseUnit == "") {
		return fmt.Errorf("maxDose and maxDoseUnit must be set together")
	}
	if (raw.WeightThreshold == nil) != (raw.AlternativeAmount == nil) {
		return fmt.Errorf("weightThreshold and alternativeAmount must be set together")
	}

	var threshold *WeightThreshold
	if raw.WeightThreshold != nil {
		threshold = &WeightThreshold{Weight: *raw.WeightThreshold, AlternativeAmount: *raw.AlternativeAmount}
	}

	requireAmount := func() (float64, error) {
		if raw.Amount == nil {
			return 0, fmt.Errorf("formula %q requires an amount", raw.Formula)
		}
		return *raw.Amount, nil
	}

	var formula Formula
	switch raw.Formula {
	case FormulaWeight:
		amount, err := requireAmount()
		if err != nil {
			return err
		}
		if threshold != nil {
			return fmt.Errorf("formula %q does not take a weight threshold", raw.Formula)
		}
		formula = WeightBased{Amount: amount}
	case FormulaFixed:
		amount, err := requireAmount()
		if err != nil {
			return err
		}
		formula = FixedDose{Amount: amount, Threshold: threshold}
	case FormulaAge:
		amount, err := requireAmount()
		if err != nil {
			return err
		}
		formula = AgeBased{Amount: amount, Threshold: threshold}
	case FormulaWeightTiered:
		if len(raw.WeightTiers) == 0 {
			return fmt.Errorf("formula %q requires weightTiers", raw.Formula)
		}
		formula = WeightTiered{Tiers: raw.WeightTiers}
	default:
		return fmt.Errorf("%w: %q (expected one of %v)", ErrUnsupportedFormula, raw.Formula, FormulaKinds)
	}

	*p = DosingProfile{
		Formula:   formula,
		Unit:      raw.Unit,
		Frequency: raw.Frequency,
		MinAge:    raw.MinAge,
		MaxAge:    raw.MaxAge,
	}
	if raw.MaxDose != nil {
		p.MaxDose = &MaxDose{Value: *raw.MaxDose, Unit: raw.MaxDoseUnit}
	}
	return nil
}

// MarshalJSON writes the profile back in its flat catalog form
func (p DosingProfile) MarshalJSON() ([]byte, error) {
	raw := dosingProfileJSON{
		Unit:      p.Unit,
		Frequency: p.Frequency,
		MinAge:    p.MinAge,
		MaxAge:    p.MaxAge,
	}
	if p.MaxDose != nil {
		value := p.MaxDose.Value
		raw.MaxDose = &value
		raw.MaxDoseUnit = p.MaxDose.Unit
	}

	setThreshold := func(t *WeightThreshold) {
		if t == nil {
			return
		}
		weight, alternative := t.Weight, t.AlternativeAmount
		raw.WeightThreshold = &weight
		raw.AlternativeAmount = &alternative
	}

	switch f := p.Formula.(type) {
	case WeightBased:
		raw.Formula = FormulaWeight
		raw.Amount = &f.Amount
	case FixedDose:
		raw.Formula = FormulaFixed
		raw.Amount = &f.Amount
		setThreshold(f.Threshold)
	case AgeBased:
		raw.Formula = FormulaAge
		raw.Amount = &f.Amount
		setThreshold(f.Threshold)
	case WeightTiered:
		raw.Formula = FormulaWeightTiered
		raw.WeightTiers = f.Tiers
	default:
		return nil, ErrUnsupportedFormula
	}

	return json.Marshal(raw)
}
