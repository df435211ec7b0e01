package dosing

import (
	"testing"

	"github.com/giygas/pediatric-dosing-api/medications/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectProfile(t *testing.T) {
	fixed := entities.DosingProfile{Formula: entities.FixedDose{Amount: 100}, Unit: entities.UnitMgPerDose, Frequency: entities.FrequencyOD}
	threshold := entities.DosingProfile{
		Formula:   entities.AgeBased{Amount: 100, Threshold: &entities.WeightThreshold{Weight: 20, AlternativeAmount: 200}},
		Unit:      entities.UnitMgPerDose,
		Frequency: entities.FrequencyOD,
	}
	weight := entities.DosingProfile{Formula: entities.WeightBased{Amount: 10}, Unit: entities.UnitMgPerKgPerDose, Frequency: entities.FrequencyOD}
	tiers := entities.DosingProfile{
		Formula:   entities.WeightTiered{Tiers: []entities.WeightTier{{MinWeight: 0, Amount: 50}}},
		Unit:      entities.UnitMgPerDose,
		Frequency: entities.FrequencyOD,
		MinAge:    ptr(12),
	}

	med := &entities.Medication{DosingProfiles: []entities.DosingProfile{fixed, threshold, weight, tiers}}

	tests := []struct {
		name     string
		age      *float64
		weight   *float64
		expected entities.FormulaKind
	}{
		{"weight-tiered wins with a weight", ptr(24), ptr(10), entities.FormulaWeightTiered},
		{"age excludes tiered profile", ptr(6), ptr(10), entities.FormulaWeight},
		{"nil age keeps every profile", nil, ptr(10), entities.FormulaWeightTiered},
		{"catalog order without weight", ptr(24), nil, entities.FormulaFixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := SelectProfile(med, tt.age, tt.weight)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, profile.Kind())
		})
	}

	onlyFlat := &entities.Medication{DosingProfiles: []entities.DosingProfile{fixed, threshold}}
	profile, err := SelectProfile(onlyFlat, nil, ptr(15))
	require.NoError(t, err)
	assert.NotNil(t, profile.Threshold(), "threshold profile preferred over plain fixed dose")
}

func TestSelectProfileNoMatch(t *testing.T) {
	med := &entities.Medication{DosingProfiles: []entities.DosingProfile{
		{Formula: entities.FixedDose{Amount: 1}, MinAge: ptr(24)},
		{Formula: entities.FixedDose{Amount: 1}, MaxAge: ptr(6)},
	}}

	_, err := SelectProfile(med, ptr(12), ptr(10))
	assert.ErrorIs(t, err, ErrNoSuitableProfile)

	// maxAge is exclusive
	_, err = SelectProfile(med, ptr(6), ptr(10))
	assert.ErrorIs(t, err, ErrNoSuitableProfile)
}

func TestConvertAmountToMg(t *testing.T) {
	assert.Equal(t, 15.0, ConvertAmountToMg(15, entities.UnitMgPerKgPerDose, 24))
	assert.Equal(t, 0.1, ConvertAmountToMg(100, entities.UnitMcgPerKgPerDose, 24))
	assert.Equal(t, 120.0, ConvertAmountToMg(5, entities.UnitMlPerDose, 24))
}

func TestComputeDose(t *testing.T) {
	tests := []struct {
		name     string
		profile  entities.DosingProfile
		weight   float64
		expected float64
	}{
		{"weight", entities.DosingProfile{Formula: entities.WeightBased{Amount: 15}, Unit: entities.UnitMgPerKgPerDose}, 10, 150},
		{"weight mcg", entities.DosingProfile{Formula: entities.WeightBased{Amount: 500}, Unit: entities.UnitMcgPerKgPerDose}, 10, 5},
		{"fixed", entities.DosingProfile{Formula: entities.FixedDose{Amount: 2.5}, Unit: entities.UnitMgPerDose}, 30, 2.5},
		{"fixed above threshold", entities.DosingProfile{
			Formula: entities.FixedDose{Amount: 2.5, Threshold: &entities.WeightThreshold{Weight: 20, AlternativeAmount: 5}},
			Unit:    entities.UnitMgPerDose,
		}, 20, 5},
		{"age below threshold", entities.DosingProfile{
			Formula: entities.AgeBased{Amount: 125, Threshold: &entities.WeightThreshold{Weight: 20, AlternativeAmount: 250}},
			Unit:    entities.UnitMgPerDose,
		}, 19, 125},
		{"fixed volume", entities.DosingProfile{Formula: entities.FixedDose{Amount: 5}, Unit: entities.UnitMlPerDose}, 10, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dose, err := ComputeDose(&tt.profile, tt.weight, 24)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, dose, 1e-9)
		})
	}
}

func TestComputeDoseErrors(t *testing.T) {
	tiers := &entities.DosingProfile{
		Formula: entities.WeightTiered{Tiers: []entities.WeightTier{{MinWeight: 5, MaxWeight: ptr(10), Amount: 100}}},
		Unit:    entities.UnitMgPerDose,
	}
	_, err := ComputeDose(tiers, 4, 24)
	assert.ErrorIs(t, err, ErrNoMatchingTier)

	_, err = ComputeDose(&entities.DosingProfile{}, 10, 24)
	assert.ErrorIs(t, err, entities.ErrUnsupportedFormula)
}

func TestPerAdministrationDose(t *testing.T) {
	bd := &entities.DosingProfile{Unit: entities.UnitMgPerKgPerDay, Frequency: entities.FrequencyBD}
	assert.Equal(t, 150.0, PerAdministrationDose(bd, 300))

	prn := &entities.DosingProfile{Unit: entities.UnitMgPerDay, Frequency: entities.FrequencyPRN}
	assert.Equal(t, 300.0, PerAdministrationDose(prn, 300))

	perDose := &entities.DosingProfile{Unit: entities.UnitMgPerDose, Frequency: entities.FrequencyQID}
	assert.Equal(t, 300.0, PerAdministrationDose(perDose, 300))
}

func TestEnforceMaxDose(t *testing.T) {
	profile := func(value float64, unit string, freq entities.Frequency) *entities.DosingProfile {
		return &entities.DosingProfile{Frequency: freq, MaxDose: &entities.MaxDose{Value: value, Unit: unit}}
	}

	tests := []struct {
		name     string
		profile  *entities.DosingProfile
		dose     float64
		weight   float64
		expected float64
		capped   bool
		daily    bool
		warning  string
	}{
		{"no ceiling", &entities.DosingProfile{Frequency: entities.FrequencyTDS}, 600, 40, 600, false, false, ""},
		{"per dose", profile(500, "mg/dose", entities.FrequencyTDS), 600, 40, 500, true, false, "Dose capped at maximum of 500.00mg."},
		{"per dose under limit", profile(500, "mg/dose", entities.FrequencyQID), 400, 40, 400, false, false, ""},
		{"daily", profile(1200, "mg/day", entities.FrequencyTDS), 500, 50, 400, true, true, "Dose capped at daily maximum of 1200.00mg."},
		{"per kg", profile(10, "mg/kg/dose", entities.FrequencyOD), 300, 20, 200, true, false, "Dose capped at maximum of 200.00mg."},
		{"unspecified checks daily first", profile(1000, "mg", entities.FrequencyQID), 300, 20, 250, true, true, "Dose capped at daily maximum of 1000.00mg."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EnforceMaxDose(tt.profile, tt.dose, tt.weight)
			assert.Equal(t, tt.expected, result.DoseMg)
			assert.Equal(t, tt.capped, result.Capped)
			assert.Equal(t, tt.daily, result.Daily)
			assert.Equal(t, tt.warning, result.Warning)

			again := EnforceMaxDose(tt.profile, result.DoseMg, tt.weight)
			assert.Equal(t, result.DoseMg, again.DoseMg, "capping is idempotent")
			assert.False(t, again.Capped)
		})
	}
}

func TestMgPerMl(t *testing.T) {
	tests := []struct {
		unit     entities.ConcentrationUnit
		amount   float64
		expected float64
	}{
		{entities.ConcentrationMgPer5Ml, 120, 24},
		{entities.ConcentrationMgPerMl, 1, 1},
		{entities.ConcentrationMgPerTablet, 5, 5},
		// The mass unit is not normalised
		{entities.ConcentrationMcgPer5Ml, 500, 100},
	}

	for _, tt := range tests {
		t.Run(string(tt.unit), func(t *testing.T) {
			got, err := MgPerMl(&entities.Concentration{Amount: tt.amount, Unit: tt.unit})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := MgPerMl(&entities.Concentration{Amount: 1, Unit: "mg/sachet"})
	assert.ErrorIs(t, err, ErrUnsupportedConcentrationUnit)
}

func TestAdminVolume(t *testing.T) {
	c := syrup()

	volume := AdminVolume(150, &c)
	require.NotNil(t, volume)
	assert.Equal(t, 6.25, *volume)

	volume = AdminVolume(100, &c)
	require.NotNil(t, volume)
	assert.Equal(t, 4.17, *volume, "rounded to 2 decimals")

	assert.Nil(t, AdminVolume(0, &c))
	assert.Nil(t, AdminVolume(150, nil))
	assert.Nil(t, AdminVolume(15, &entities.Concentration{Amount: 5, Unit: entities.ConcentrationMgPerTablet}))
}

func TestAdminUnit(t *testing.T) {
	unit := func(f entities.Formulation) string {
		return AdminUnit(&entities.Concentration{Formulation: f})
	}

	assert.Equal(t, "ml", unit(entities.FormulationSyrup))
	assert.Equal(t, "ml", unit(entities.FormulationSuspension))
	assert.Equal(t, "ml", unit(entities.FormulationInjection))
	assert.Equal(t, "tablet(s)", unit(entities.FormulationTablet))
	assert.Equal(t, "dose(s)", unit(entities.FormulationNebulizer))
	assert.Equal(t, "N/A", unit(""))
	assert.Equal(t, "N/A", AdminUnit(nil))
}
