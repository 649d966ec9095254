package core

import "strings"

// UnitKind is the SI base quantity a BaseUnit measures.
type UnitKind string

const (
	UnitMole          UnitKind = "mole"
	UnitLitre         UnitKind = "litre"
	UnitGram          UnitKind = "gram"
	UnitSecond        UnitKind = "second"
	UnitKelvin        UnitKind = "kelvin"
	UnitCelsius       UnitKind = "celsius"
	UnitDimensionless UnitKind = "dimensionless"
)

// BaseUnit is one factor of a unit, e.g. mmol is {mole, -3, 1}.
type BaseUnit struct {
	Kind     UnitKind
	Scale    int // power of ten prefix
	Exponent int
}

// Unit is an opaque value+name pair. Two units are the same unit when their
// names match; base units are carried for export only and never compared.
type Unit struct {
	Name      string
	BaseUnits []BaseUnit
}

// Predefined units used by readers and method files.
var (
	Molar      = Unit{Name: "mol / l", BaseUnits: []BaseUnit{{UnitMole, 0, 1}, {UnitLitre, 0, -1}}}
	MilliMolar = Unit{Name: "mmol / l", BaseUnits: []BaseUnit{{UnitMole, -3, 1}, {UnitLitre, 0, -1}}}
	MicroMolar = Unit{Name: "umol / l", BaseUnits: []BaseUnit{{UnitMole, -6, 1}, {UnitLitre, 0, -1}}}
	NanoMolar  = Unit{Name: "nmol / l", BaseUnits: []BaseUnit{{UnitMole, -9, 1}, {UnitLitre, 0, -1}}}

	GramPerLitre      = Unit{Name: "g / l", BaseUnits: []BaseUnit{{UnitGram, 0, 1}, {UnitLitre, 0, -1}}}
	MilligramPerLitre = Unit{Name: "mg / l", BaseUnits: []BaseUnit{{UnitGram, -3, 1}, {UnitLitre, 0, -1}}}

	Microlitre = Unit{Name: "ul", BaseUnits: []BaseUnit{{UnitLitre, -6, 1}}}

	Second = Unit{Name: "s", BaseUnits: []BaseUnit{{UnitSecond, 0, 1}}}
	Minute = Unit{Name: "min", BaseUnits: []BaseUnit{{UnitSecond, 0, 1}}}
	Hour   = Unit{Name: "hour", BaseUnits: []BaseUnit{{UnitSecond, 0, 1}}}

	Celsius = Unit{Name: "C", BaseUnits: []BaseUnit{{UnitCelsius, 0, 1}}}
	Kelvin  = Unit{Name: "K", BaseUnits: []BaseUnit{{UnitKelvin, 0, 1}}}
)

// unitAliases maps accepted spellings to predefined units.
var unitAliases = map[string]Unit{
	"m":        Molar,
	"mol/l":    Molar,
	"mm":       MilliMolar,
	"mmol/l":   MilliMolar,
	"um":       MicroMolar,
	"umol/l":   MicroMolar,
	"nm":       NanoMolar,
	"nmol/l":   NanoMolar,
	"g/l":      GramPerLitre,
	"mg/l":     MilligramPerLitre,
	"ul":       Microlitre,
	"s":        Second,
	"sec":      Second,
	"second":   Second,
	"seconds":  Second,
	"min":      Minute,
	"mins":     Minute,
	"minute":   Minute,
	"minutes":  Minute,
	"h":        Hour,
	"hour":     Hour,
	"hours":    Hour,
	"c":        Celsius,
	"celsius":  Celsius,
	"°c":       Celsius,
	"k":        Kelvin,
	"kelvin":   Kelvin,

	"mol/litre":  Molar,
	"mmol/litre": MilliMolar,
	"umol/litre": MicroMolar,
	"nmol/litre": NanoMolar,
}

// UnitFromName resolves a unit name to a predefined unit. Names that are not
// known are kept as opaque units carrying only the given name.
func UnitFromName(name string) Unit {
	name = strings.TrimSpace(name)
	if name == "" {
		return Unit{}
	}
	key := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	if u, ok := unitAliases[key]; ok {
		return u.clone()
	}
	return Unit{Name: name}
}

// IsZero reports whether the unit is undefined.
func (u Unit) IsZero() bool {
	return u.Name == ""
}

// SameAs compares units by name.
func (u Unit) SameAs(other Unit) bool {
	return u.Name == other.Name
}

func (u Unit) String() string {
	return u.Name
}

func (u Unit) clone() Unit {
	out := Unit{Name: u.Name}
	if len(u.BaseUnits) > 0 {
		out.BaseUnits = make([]BaseUnit, len(u.BaseUnits))
		copy(out.BaseUnits, u.BaseUnits)
	}
	return out
}
