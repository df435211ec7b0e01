// Package interfaces defines core abstractions for the pediatric dosing API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/pediatric-dosing-api/medications/entities"
)

// CatalogQualityReport summarises the issues found while loading a catalog
type CatalogQualityReport struct {
	TotalRecords                    int      `json:"total_records"`
	RejectedMedications             int      `json:"rejected_medications"`
	RejectedMedicationIDs           []string `json:"rejected_medication_ids"`
	DuplicateIDs                    []string `json:"duplicate_ids"`
	DisabledMedications             int      `json:"disabled_medications"`
	MedicationsWithoutCategories    int      `json:"medications_without_categories"`
	MedicationsWithoutCategoriesIDs []string `json:"medications_without_categories_ids"`
	ProfilesWithoutMaxDose          int      `json:"profiles_without_max_dose"`
	TierCoverageGaps                int      `json:"tier_coverage_gaps"`
	TierCoverageGapIDs              []string `json:"tier_coverage_gap_ids"` // Medications whose weight tiers leave a hole
}

// CatalogStore defines the contract for the in-memory medication catalog.
// Readers always see a complete catalog; updates are swapped in atomically.
type CatalogStore interface {
	// Data retrieval methods
	GetMedications() []entities.Medication
	GetMedication(id string) (entities.Medication, bool)
	GetMedicationsMap() map[string]entities.Medication
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetReport() *CatalogQualityReport

	// Data update methods
	UpdateCatalog(medications []entities.Medication, medicationsMap map[string]entities.Medication, report *CatalogQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// CatalogLoader defines the contract for reading the medication catalog from its source
type CatalogLoader interface {
	// LoadCatalog returns the validated medications and a report of what was dropped
	LoadCatalog() ([]entities.Medication, *CatalogQualityReport, error)
}

// CatalogValidator defines the contract for catalog schema validation and user input checks
type CatalogValidator interface {
	// ValidateMedication checks a single catalog record
	ValidateMedication(m *entities.Medication) error

	// ValidateCatalog checks the whole catalog, including id uniqueness
	ValidateCatalog(medications []entities.Medication) error

	// ReportCatalogQuality lists non-fatal catalog issues
	ReportCatalogQuality(medications []entities.Medication) *CatalogQualityReport

	// ValidateInput validates free-text search input
	ValidateInput(input string) error

	// ValidateMedicationID validates a medication id taken from a request
	ValidateMedicationID(input string) (string, error)
}

// DoseCalculator computes a dose for one medication and patient.
// A nil result means the medication is disabled.
type DoseCalculator interface {
	Calculate(medication *entities.Medication, weightKg float64, ageMonths *float64) *entities.CalculationResult
}

// Scheduler defines the contract for periodic catalog reloads
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	ListMedications(w http.ResponseWriter, r *http.Request)
	GetMedication(w http.ResponseWriter, r *http.Request)
	SearchMedications(w http.ResponseWriter, r *http.Request)
	CalculateDose(w http.ResponseWriter, r *http.Request)
	CalculateDoseFromBody(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the current status, its details and the HTTP status to answer with
	HealthCheck() (status string, details map[string]any, httpStatus int)
}
