package entities

// ConcentrationUnit is the strength unit of a product, e.g. mg/5ml
type ConcentrationUnit string

const (
	ConcentrationMgPerMl     ConcentrationUnit = "mg/ml"
	ConcentrationMgPer5Ml    ConcentrationUnit = "mg/5ml"
	ConcentrationMcgPerMl    ConcentrationUnit = "mcg/ml"
	ConcentrationMcgPer5Ml   ConcentrationUnit = "mcg/5ml"
	ConcentrationGPer5Ml     ConcentrationUnit = "g/5ml"
	ConcentrationMgPerTablet ConcentrationUnit = "mg/tablet"
)

// ConcentrationUnits lists every unit accepted in the catalog
var ConcentrationUnits = []ConcentrationUnit{
	ConcentrationMgPerMl,
	ConcentrationMgPer5Ml,
	ConcentrationMcgPerMl,
	ConcentrationMcgPer5Ml,
	ConcentrationGPer5Ml,
	ConcentrationMgPerTablet,
}

// Formulation is the physical form the product is administered in
type Formulation string

const (
	FormulationSyrup      Formulation = "syrup"
	FormulationSuspension Formulation = "suspension"
	FormulationInjection  Formulation = "injection"
	FormulationTablet     Formulation = "tablet"
	FormulationNebulizer  Formulation = "nebulizer"
)

// Formulations lists every formulation accepted in the catalog
var Formulations = []Formulation{
	FormulationSyrup,
	FormulationSuspension,
	FormulationInjection,
	FormulationTablet,
	FormulationNebulizer,
}

// Concentration describes how much active substance a product carries per volume or unit
type Concentration struct {
	Amount      float64           `json:"amount"`
	Unit        ConcentrationUnit `json:"unit"`
	Formulation Formulation       `json:"formulation"`
}
