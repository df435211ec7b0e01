package dosing

import (
	"fmt"

	"github.com/giygas/pediatric-dosing-api/interfaces"
	"github.com/giygas/pediatric-dosing-api/medications/entities"
)

// Service resolves medications from the injected catalog and hands them to a calculator
type Service struct {
	catalog    interfaces.CatalogStore
	calculator interfaces.DoseCalculator
}

// NewService creates a dose service over a catalog store and a calculator
func NewService(catalog interfaces.CatalogStore, calculator interfaces.DoseCalculator) *Service {
	return &Service{
		catalog:    catalog,
		calculator: calculator,
	}
}

// CalculateByID computes a dose for the medication with the given id
func (s *Service) CalculateByID(id string, weightKg float64, ageMonths *float64) (*entities.CalculationResult, error) {
	medication, ok := s.catalog.GetMedication(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMedicationNotFound, id)
	}

	if !medication.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrMedicationDisabled, id)
	}

	return s.calculator.Calculate(&medication, weightKg, ageMonths), nil
}
