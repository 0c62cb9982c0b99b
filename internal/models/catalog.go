package models

// RoleDefinition is the seed form of a catalog entry
type RoleDefinition struct {
	Key             string
	Name            string
	Description     string
	DefaultSequence int
	DefaultCo2Kg    float64
}

// CanonicalCatalog is the reference stage taxonomy installed by the seed
// command and re-applied by catalog alignment. Sequence values are spaced so
// new stages can be slotted in without renumbering.
func CanonicalCatalog() []RoleDefinition {
	return []RoleDefinition{
		{
			Key:             "FIBER_PREPARATION",
			Name:            "Fiber Preparation & Spinning",
			Description:     "Raw fiber sourcing, carding and yarn spinning",
			DefaultSequence: 10,
			DefaultCo2Kg:    3.5,
		},
		{
			Key:             "FABRIC_DYE_FINISH",
			Name:            "Fabric Dyeing & Finishing",
			Description:     "Dyeing, washing and chemical finishing of fabric",
			DefaultSequence: 20,
			DefaultCo2Kg:    7.1,
		},
		{
			Key:             "MARKER_CUTTING",
			Name:            "Marker Making & Cutting",
			Description:     "Marker planning and fabric cutting",
			DefaultSequence: 30,
			DefaultCo2Kg:    4.2,
		},
		{
			Key:             "BUNDLING_SEWING",
			Name:            "Bundling & Sewing",
			Description:     "Bundling, sewing and assembly",
			DefaultSequence: 40,
			DefaultCo2Kg:    6.8,
		},
		{
			Key:             "FINAL_QC",
			Name:            "Final Quality Control",
			Description:     "End-of-line inspection and measurement checks",
			DefaultSequence: 50,
			DefaultCo2Kg:    1.2,
		},
		{
			Key:             "PACKING",
			Name:            "Packing & Cartoning",
			Description:     "Folding, polybagging and carton packing",
			DefaultSequence: 60,
			DefaultCo2Kg:    0.9,
		},
		{
			Key:             "LOGISTICS",
			Name:            "Logistics & Shipping",
			Description:     "Outbound freight and distribution",
			DefaultSequence: 70,
			DefaultCo2Kg:    5.4,
		},
		{
			Key:             "LAB_TESTING",
			Name:            "Laboratory Testing",
			Description:     "Cross-cutting physical and chemical lab tests",
			DefaultSequence: 80,
			DefaultCo2Kg:    0.6,
		},
		{
			Key:             "SUSTAINABILITY_TRACKING",
			Name:            "Sustainability Tracking",
			Description:     "Cross-cutting ESG data capture for the lot",
			DefaultSequence: 90,
			DefaultCo2Kg:    0.2,
		},
	}
}
