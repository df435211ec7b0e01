package entities

// CalculationResult is the outcome of one dose calculation. It is built fresh per call
// and never persisted outside the in-memory cache.
type CalculationResult struct {
	MedicationID string      `json:"medicationId"`
	DoseMg       float64     `json:"doseMg"`
	AdminVolume  *float64    `json:"adminVolume"`
	AdminUnit    string      `json:"adminUnit"`
	Frequency    Frequency   `json:"frequency"`
	Formulation  Formulation `json:"formulation"`
	IsValid      bool        `json:"isValid"`
	Errors       []string    `json:"errors,omitempty"`
	Warnings     []string    `json:"warnings"`
	Notes        []string    `json:"notes"`
}
