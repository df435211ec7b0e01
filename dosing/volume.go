package dosing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/giygas/pediatric-dosing-api/medications/entities"
)

// MgPerMl returns the product strength per millilitre, or per tablet for tablets.
// Only the volume part of the unit is normalised; the amount's mass unit is kept as is.
func MgPerMl(c *entities.Concentration) (float64, error) {
	unit := strings.ToLower(string(c.Unit))
	switch {
	case strings.HasSuffix(unit, "/5ml"):
		return c.Amount / 5, nil
	case strings.HasSuffix(unit, "/ml"):
		return c.Amount, nil
	case strings.HasSuffix(unit, "/tablet"):
		return c.Amount, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedConcentrationUnit, c.Unit)
	}
}

// AdminVolume converts a milligram dose into millilitres rounded to 2 decimals.
// It returns nil for a non-positive dose, a missing concentration or a non-liquid unit.
func AdminVolume(doseMg float64, c *entities.Concentration) *float64 {
	if doseMg <= 0 || c == nil {
		return nil
	}
	if !strings.Contains(strings.ToLower(string(c.Unit)), "ml") {
		return nil
	}

	mgPerMl, err := MgPerMl(c)
	if err != nil || mgPerMl <= 0 {
		return nil
	}

	volume := round2(doseMg / mgPerMl)
	return &volume
}

// AdminUnit returns the unit a caregiver measures the dose in
func AdminUnit(c *entities.Concentration) string {
	if c == nil || c.Formulation == "" {
		return "N/A"
	}

	switch c.Formulation {
	case entities.FormulationSyrup, entities.FormulationSuspension, entities.FormulationInjection:
		return "ml"
	case entities.FormulationTablet:
		return "tablet(s)"
	default:
		return "dose(s)"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
