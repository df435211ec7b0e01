package dosing

import (
	"fmt"
	"testing"

	"github.com/giygas/pediatric-dosing-api/medications/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func syrup() entities.Concentration {
	return entities.Concentration{Amount: 120, Unit: entities.ConcentrationMgPer5Ml, Formulation: entities.FormulationSuspension}
}

func paracetamol() *entities.Medication {
	return &entities.Medication{
		ID:   "paracetamol",
		Name: "Paracetamol",
		DosingProfiles: []entities.DosingProfile{{
			Formula:   entities.WeightBased{Amount: 15},
			Unit:      entities.UnitMgPerKgPerDose,
			Frequency: entities.FrequencyTDS,
			MinAge:    ptr(2),
		}},
		Concentration: syrup(),
		Enabled:       true,
		Notes:         []string{"Give with water"},
	}
}

func tiered() *entities.Medication {
	return &entities.Medication{
		ID:   "tiered",
		Name: "Tiered",
		DosingProfiles: []entities.DosingProfile{{
			Formula: entities.WeightTiered{Tiers: []entities.WeightTier{
				{MinWeight: 0, MaxWeight: ptr(15), Amount: 30},
				{MinWeight: 15.1, MaxWeight: ptr(23), Amount: 45},
				{MinWeight: 23.1, MaxWeight: ptr(40), Amount: 60},
				{MinWeight: 40.1, Amount: 75},
			}},
			Unit:      entities.UnitMgPerDose,
			Frequency: entities.FrequencyTDS,
		}},
		Concentration: entities.Concentration{Amount: 250, Unit: entities.ConcentrationMgPer5Ml, Formulation: entities.FormulationSuspension},
		Enabled:       true,
	}
}

func TestCalculateWeightBased(t *testing.T) {
	result := Calculate(paracetamol(), 10, ptr(36))
	require.NotNil(t, result)

	assert.True(t, result.IsValid)
	assert.Equal(t, 150.0, result.DoseMg)
	require.NotNil(t, result.AdminVolume)
	assert.Equal(t, 6.25, *result.AdminVolume)
	assert.Equal(t, "ml", result.AdminUnit)
	assert.Equal(t, entities.FrequencyTDS, result.Frequency)
	assert.Equal(t, entities.FormulationSuspension, result.Formulation)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, []string{"Give with water"}, result.Notes)
}

func TestCalculateWeightTiered(t *testing.T) {
	result := Calculate(tiered(), 20, ptr(60))
	require.NotNil(t, result)

	assert.True(t, result.IsValid)
	assert.Equal(t, 45.0, result.DoseMg)
	assert.Equal(t, 0.9, *result.AdminVolume)
}

func TestCalculateTierMiss(t *testing.T) {
	result := Calculate(tiered(), 15.05, ptr(60))
	require.NotNil(t, result)

	assert.False(t, result.IsValid)
	assert.Equal(t, 0.0, result.DoseMg)
	assert.Nil(t, result.AdminVolume)
	assert.Equal(t, []string{"No matching weight tier found for weight 15.05kg"}, result.Errors)
	assert.Equal(t, result.Errors, result.Warnings)
}

func TestCalculateRejectsZeroWeight(t *testing.T) {
	result := Calculate(paracetamol(), 0, ptr(36))
	require.NotNil(t, result)

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"Weight must be greater than 0"}, result.Errors)
	assert.Equal(t, 0.0, result.DoseMg)
	assert.Nil(t, result.AdminVolume)
}

func TestCalculateRejectsNegativeAge(t *testing.T) {
	result := Calculate(paracetamol(), 10, ptr(-1))
	require.NotNil(t, result)

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"Age cannot be negative"}, result.Errors)
}

func TestCalculateAgeOutsideEveryProfile(t *testing.T) {
	result := Calculate(paracetamol(), 4, ptr(1))
	require.NotNil(t, result)

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"No suitable dosing profile found for this patient's age"}, result.Errors)
}

func TestCalculateWithoutAge(t *testing.T) {
	result := Calculate(paracetamol(), 10, nil)
	require.NotNil(t, result)

	assert.True(t, result.IsValid)
	assert.Equal(t, 150.0, result.DoseMg)
	assert.Empty(t, result.Warnings, "a missing age is not a warning on its own")
}

func TestCalculatePerDoseCap(t *testing.T) {
	med := paracetamol()
	med.DosingProfiles[0].MaxDose = &entities.MaxDose{Value: 500, Unit: "mg/dose"}

	result := Calculate(med, 40, ptr(120))
	require.NotNil(t, result)

	assert.True(t, result.IsValid)
	assert.Equal(t, 500.0, result.DoseMg)
	assert.Contains(t, result.Warnings, "Dose capped at maximum of 500.00mg.")
}

func TestCalculateDailyCapAndAdultHint(t *testing.T) {
	med := &entities.Medication{
		ID:   "ibuprofen",
		Name: "Ibuprofen",
		DosingProfiles: []entities.DosingProfile{{
			Formula:   entities.WeightBased{Amount: 30},
			Unit:      entities.UnitMgPerKgPerDay,
			Frequency: entities.FrequencyTDS,
			MaxDose:   &entities.MaxDose{Value: 1200, Unit: "mg/day"},
		}},
		Concentration: entities.Concentration{Amount: 100, Unit: entities.ConcentrationMgPer5Ml, Formulation: entities.FormulationSuspension},
		Enabled:       true,
		Warnings:      []string{"Avoid in dehydration"},
	}

	result := Calculate(med, 20, ptr(72))
	require.NotNil(t, result)
	assert.Equal(t, 200.0, result.DoseMg, "600mg/day split across TDS")
	assert.Equal(t, 10.0, *result.AdminVolume)
	assert.Equal(t, []string{"Avoid in dehydration"}, result.Warnings)

	result = Calculate(med, 50, ptr(150))
	require.NotNil(t, result)
	assert.Equal(t, 400.0, result.DoseMg)
	assert.Equal(t, []string{
		"Dose capped at daily maximum of 1200.00mg.",
		"Avoid in dehydration",
		"Patient weight exceeds 40kg - consider adult dosing",
	}, result.Warnings)
}

func TestCalculateFixedWithThreshold(t *testing.T) {
	med := &entities.Medication{
		ID:   "salbutamol",
		Name: "Salbutamol",
		DosingProfiles: []entities.DosingProfile{{
			Formula:   entities.FixedDose{Amount: 2.5, Threshold: &entities.WeightThreshold{Weight: 20, AlternativeAmount: 5}},
			Unit:      entities.UnitMgPerDose,
			Frequency: entities.FrequencyQID,
		}},
		Concentration: entities.Concentration{Amount: 1, Unit: entities.ConcentrationMgPerMl, Formulation: entities.FormulationNebulizer},
		Enabled:       true,
	}

	assert.Equal(t, 2.5, Calculate(med, 19.9, ptr(60)).DoseMg)

	result := Calculate(med, 20, ptr(60))
	assert.Equal(t, 5.0, result.DoseMg)
	assert.Equal(t, "dose(s)", result.AdminUnit)
	assert.Equal(t, 5.0, *result.AdminVolume)
}

func TestCalculateTablet(t *testing.T) {
	med := &entities.Medication{
		ID:   "prednisolone",
		Name: "Prednisolone",
		DosingProfiles: []entities.DosingProfile{{
			Formula:   entities.WeightBased{Amount: 1},
			Unit:      entities.UnitMgPerKgPerDay,
			Frequency: entities.FrequencyOD,
			MaxDose:   &entities.MaxDose{Value: 40, Unit: "mg/day"},
		}},
		Concentration: entities.Concentration{Amount: 5, Unit: entities.ConcentrationMgPerTablet, Formulation: entities.FormulationTablet},
		Enabled:       true,
	}

	result := Calculate(med, 15, ptr(48))
	require.NotNil(t, result)
	assert.Equal(t, 15.0, result.DoseMg)
	assert.Nil(t, result.AdminVolume)
	assert.Equal(t, "tablet(s)", result.AdminUnit)
}

func TestCalculateDisabledMedication(t *testing.T) {
	med := paracetamol()
	med.Enabled = false

	assert.Nil(t, Calculate(med, 10, ptr(36)))
	assert.Nil(t, DoseEngine{}.Calculate(nil, 10, nil))
}

func TestCalculateUnsupportedConcentration(t *testing.T) {
	med := paracetamol()
	med.Concentration.Unit = "mg/sachet"

	result := Calculate(med, 10, ptr(36))
	require.NotNil(t, result)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"Unsupported concentration unit: mg/sachet"}, result.Errors)
}

func TestCalculateDoesNotShareNotes(t *testing.T) {
	med := paracetamol()
	result := Calculate(med, 10, ptr(36))
	result.Notes[0] = "changed"

	assert.Equal(t, "Give with water", med.Notes[0])
}

func BenchmarkCalculate(b *testing.B) {
	med := paracetamol()
	age := ptr(36)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Calculate(med, float64(5+i%30), age)
	}
}

func BenchmarkCalculateTiered(b *testing.B) {
	med := tiered()
	for i := 0; i < b.N; i++ {
		_ = Calculate(med, float64(i%50)+0.5, nil)
	}
}

func ExampleCalculate() {
	med := paracetamol()
	age := 36.0

	result := Calculate(med, 10, &age)
	fmt.Printf("%.2f mg %s, %.2f %s\n", result.DoseMg, result.Frequency, *result.AdminVolume, result.AdminUnit)
	// Output: 150.00 mg TDS, 6.25 ml
}
