package validation

import (
	"strings"
	"testing"

	"github.com/giygas/pediatric-dosing-api/medications/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMedication(id string) entities.Medication {
	return entities.Medication{
		ID:   id,
		Name: "Paracetamol",
		DosingProfiles: []entities.DosingProfile{{
			Formula:   entities.WeightBased{Amount: 15},
			Unit:      entities.UnitMgPerKgPerDose,
			Frequency: entities.FrequencyQID,
			MaxDose:   &entities.MaxDose{Value: 1000, Unit: "mg/dose"},
		}},
		Concentration: entities.Concentration{Amount: 120, Unit: entities.ConcentrationMgPer5Ml, Formulation: entities.FormulationSuspension},
		Categories:    []string{"pain", "fever"},
		Enabled:       true,
	}
}

func TestValidateMedication(t *testing.T) {
	validator := NewCatalogValidator()

	med := validMedication("paracetamol")
	require.NoError(t, validator.ValidateMedication(&med))

	tests := []struct {
		name     string
		mutate   func(m *entities.Medication)
		contains string
	}{
		{"empty id", func(m *entities.Medication) { m.ID = " " }, "empty medication id"},
		{"uppercase id", func(m *entities.Medication) { m.ID = "Paracetamol" }, "invalid medication id"},
		{"empty name", func(m *entities.Medication) { m.Name = "" }, "empty name"},
		{"long name", func(m *entities.Medication) { m.Name = strings.Repeat("a", 201) }, "name too long"},
		{"long note", func(m *entities.Medication) { m.Notes = []string{strings.Repeat("n", 1001)} }, "note or warning too long"},
		{"zero concentration", func(m *entities.Medication) { m.Concentration.Amount = 0 }, "invalid concentration"},
		{"unknown concentration unit", func(m *entities.Medication) { m.Concentration.Unit = "mg/l" }, "invalid concentration"},
		{"unknown formulation", func(m *entities.Medication) { m.Concentration.Formulation = "patch" }, "formulation must be one of"},
		{"no profiles", func(m *entities.Medication) { m.DosingProfiles = nil }, "no dosing profiles"},
		{"missing formula", func(m *entities.Medication) { m.DosingProfiles[0].Formula = nil }, "missing formula"},
		{"unknown dose unit", func(m *entities.Medication) { m.DosingProfiles[0].Unit = "mg/m2" }, "unit must be one of"},
		{"unknown frequency", func(m *entities.Medication) { m.DosingProfiles[0].Frequency = "weekly" }, "frequency must be one of"},
		{"inverted ages", func(m *entities.Medication) {
			m.DosingProfiles[0].MinAge = ptr(24)
			m.DosingProfiles[0].MaxAge = ptr(12)
		}, "must be lower than maxAge"},
		{"negative max dose", func(m *entities.Medication) { m.DosingProfiles[0].MaxDose.Value = -1 }, "maxDose must be positive"},
		{"zero amount", func(m *entities.Medication) { m.DosingProfiles[0].Formula = entities.WeightBased{} }, "amount must be positive"},
		{"bad threshold", func(m *entities.Medication) {
			m.DosingProfiles[0].Formula = entities.FixedDose{Amount: 1, Threshold: &entities.WeightThreshold{Weight: 0, AlternativeAmount: 2}}
		}, "weightThreshold must be positive"},
		{"no tiers", func(m *entities.Medication) { m.DosingProfiles[0].Formula = entities.WeightTiered{} }, "without tiers"},
		{"inverted tier", func(m *entities.Medication) {
			m.DosingProfiles[0].Formula = entities.WeightTiered{Tiers: []entities.WeightTier{{MinWeight: 10, MaxWeight: ptr(5), Amount: 1}}}
		}, "is lower than minWeight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			med := validMedication("paracetamol")
			tt.mutate(&med)

			err := validator.ValidateMedication(&med)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}

	assert.Error(t, validator.ValidateMedication(nil))
}

func TestValidateCatalog(t *testing.T) {
	validator := NewCatalogValidator()

	assert.NoError(t, validator.ValidateCatalog([]entities.Medication{validMedication("a"), validMedication("b")}))

	err := validator.ValidateCatalog(nil)
	assert.EqualError(t, err, "no medications found")

	err = validator.ValidateCatalog([]entities.Medication{validMedication("a"), validMedication("a")})
	assert.EqualError(t, err, "duplicate medication id found: a")

	broken := validMedication("b")
	broken.Name = ""
	err = validator.ValidateCatalog([]entities.Medication{validMedication("a"), broken})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid medication b")
}

func TestReportCatalogQuality(t *testing.T) {
	validator := NewCatalogValidator()

	uncategorized := validMedication("uncategorized")
	uncategorized.Categories = nil
	uncategorized.DosingProfiles[0].MaxDose = nil

	disabled := validMedication("disabled")
	disabled.Enabled = false

	gappy := validMedication("gappy")
	gappy.DosingProfiles = []entities.DosingProfile{{
		Formula: entities.WeightTiered{Tiers: []entities.WeightTier{
			{MinWeight: 0, MaxWeight: ptr(10), Amount: 1},
			{MinWeight: 12, Amount: 2},
		}},
		Unit:      entities.UnitMgPerDose,
		Frequency: entities.FrequencyOD,
		MaxDose:   &entities.MaxDose{Value: 5, Unit: "mg/dose"},
	}}

	report := validator.ReportCatalogQuality([]entities.Medication{
		validMedication("ok"), uncategorized, disabled, gappy, validMedication("ok"),
	})

	assert.Equal(t, 5, report.TotalRecords)
	assert.Equal(t, []string{"ok"}, report.DuplicateIDs)
	assert.Equal(t, 1, report.DisabledMedications)
	assert.Equal(t, 1, report.MedicationsWithoutCategories)
	assert.Equal(t, []string{"uncategorized"}, report.MedicationsWithoutCategoriesIDs)
	assert.Equal(t, 1, report.ProfilesWithoutMaxDose)
	assert.Equal(t, 1, report.TierCoverageGaps)
	assert.Equal(t, []string{"gappy"}, report.TierCoverageGapIDs)
}

func TestTierCoverageGaps(t *testing.T) {
	tests := []struct {
		name     string
		tiers    []entities.WeightTier
		expected []WeightGap
	}{
		{"contiguous", []entities.WeightTier{
			{MinWeight: 0, MaxWeight: ptr(15)},
			{MinWeight: 15, MaxWeight: ptr(23)},
			{MinWeight: 23},
		}, nil},
		{"unsorted with hole", []entities.WeightTier{
			{MinWeight: 20},
			{MinWeight: 0, MaxWeight: ptr(10)},
		}, []WeightGap{{From: 10, To: 20}}},
		{"open ended covers the rest", []entities.WeightTier{
			{MinWeight: 0},
			{MinWeight: 30, MaxWeight: ptr(40)},
		}, nil},
		{"decimal tiers", []entities.WeightTier{
			{MinWeight: 0, MaxWeight: ptr(15)},
			{MinWeight: 15.1, MaxWeight: ptr(23)},
		}, []WeightGap{{From: 15, To: 15.1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TierCoverageGaps(tt.tiers))
		})
	}
}

func TestValidateInput(t *testing.T) {
	validator := NewCatalogValidator()

	valid := []string{"paracetamol", "ibu", "acide salicylique", "Amoxicilline-acide", "éphédrine", "vitamin b12"}
	for _, input := range valid {
		assert.NoError(t, validator.ValidateInput(input), input)
	}

	invalid := []struct {
		input    string
		contains string
	}{
		{"", "input cannot be empty"},
		{"a", "input too short"},
		{strings.Repeat("ab", 26), "input too long"},
		{"a b c d e f g", "too complex"},
		{"<script>alert(1)</script>", "dangerous content"},
		{"para; drop", "dangerous content"},
		{"paracetamol' or '1'='1", "dangerous content"},
		{"para%", "invalid characters"},
		{"aaaaaaaaaaaa", "excessive character repetition"},
	}
	for _, tt := range invalid {
		err := validator.ValidateInput(tt.input)
		if assert.Error(t, err, tt.input) {
			assert.Contains(t, err.Error(), tt.contains, tt.input)
		}
	}
}

func TestValidateMedicationID(t *testing.T) {
	validator := NewCatalogValidator()

	id, err := validator.ValidateMedicationID("amoxicillin")
	require.NoError(t, err)
	assert.Equal(t, "amoxicillin", id)

	id, err = validator.ValidateMedicationID("co-amoxiclav_2")
	require.NoError(t, err)
	assert.Equal(t, "co-amoxiclav_2", id)

	for _, input := range []string{"", " ", " amoxicillin", "Amoxicillin", "amox%20", "../etc", strings.Repeat("a", 65)} {
		_, err := validator.ValidateMedicationID(input)
		assert.Error(t, err, input)
	}
}
