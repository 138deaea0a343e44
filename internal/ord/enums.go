// internal/ord/enums.go
package ord

// UnknownName is returned for any code a table does not define.
const UnknownName = "UNKNOWN"

// EnumTable maps the integer codes of an ORD protobuf enum to their names.
// Tables are built once at package init and never modified.
type EnumTable struct {
	name   string
	values []string
}

func newEnumTable(name string, values ...string) EnumTable {
	return EnumTable{name: name, values: values}
}

// Name returns the enum type name, e.g. "ReactionRole".
func (t EnumTable) Name() string {
	return t.name
}

// Lookup returns the name registered for code, or UnknownName.
func (t EnumTable) Lookup(code int) string {
	if code < 0 || code >= len(t.values) {
		return UnknownName
	}
	return t.values[code]
}

// Len returns the number of defined codes.
func (t EnumTable) Len() int {
	return len(t.values)
}

var (
	// ReactionRole covers roles 0-10 of ord.ReactionRole.
	ReactionRole = newEnumTable("ReactionRole",
		"UNSPECIFIED",
		"REACTANT",
		"REAGENT",
		"SOLVENT",
		"CATALYST",
		"WORKUP",
		"INTERNAL_STANDARD",
		"AUTHENTIC_STANDARD",
		"PRODUCT",
		"BYPRODUCT",
		"SIDE_PRODUCT",
	)

	// IdentifierType covers ord.CompoundIdentifier types 0-8.
	IdentifierType = newEnumTable("IdentifierType",
		"UNSPECIFIED",
		"CUSTOM",
		"SMILES",
		"INCHI",
		"MOLBLOCK",
		"FINGERPRINT",
		"NAME",
		"IUPAC_NAME",
		"CAS_NUMBER",
	)

	MassUnit   = newEnumTable("MassUnit", "UNSPECIFIED", "KILOGRAM", "GRAM", "MILLIGRAM", "MICROGRAM")
	VolumeUnit = newEnumTable("VolumeUnit", "UNSPECIFIED", "LITER", "MILLILITER", "MICROLITER", "NANOLITER")
	MoleUnit   = newEnumTable("MoleUnit", "UNSPECIFIED", "MOLE", "MILLIMOLE", "MICROMOLE", "NANOMOLE")
)
