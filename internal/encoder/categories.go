package encoder

import "strings"

// Group is a one-hot encoded categorical attribute. Values are the
// recognized categories; Other is the bucket for supplied values that match
// none of them. When the source is absent, only AbsentDefault (if set) is
// true.
type Group struct {
	Prefix        string
	Values        []string
	Other         string
	AbsentDefault string
	// Canonical maps a supplied value to the form used in Values.
	Canonical func(string) string
}

func (g Group) column(value string) string {
	return g.Prefix + "_" + value
}

// Columns lists the indicator names in order, the Other bucket last.
func (g Group) Columns() []string {
	cols := make([]string, 0, len(g.Values)+1)
	for _, v := range g.Values {
		cols = append(cols, g.column(v))
	}
	return append(cols, g.column(g.Other))
}

// Encode writes every indicator of the group into vec.
func (g Group) Encode(vec Vector, source Opt[string]) {
	for _, col := range g.Columns() {
		vec[col] = false
	}

	value, ok := source.Get()
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		if g.AbsentDefault != "" {
			vec[g.column(g.AbsentDefault)] = true
		}
		return
	}

	if g.Canonical != nil {
		value = g.Canonical(value)
	}
	for _, v := range g.Values {
		if v == value {
			vec[g.column(v)] = true
			return
		}
	}
	vec[g.column(g.Other)] = true
}

// The Other bucket names match the trained model's columns.
var (
	BodyTypes = Group{
		Prefix: "body_type",
		Values: []string{"Coupe", "Hatchback", "Minivan", "Pickup Truck", "SUV / Crossover", "Sedan", "Van", "Wagon"},
		Other:  "nan",
	}

	// Gasoline is assumed when no fuel type is supplied, reflecting its
	// market share. No other group selects a value on absence.
	FuelTypes = Group{
		Prefix:        "fuel_type",
		Values:        []string{"Compressed Natural Gas", "Diesel", "Electric", "Flex Fuel Vehicle", "Gasoline", "Hybrid", "Propane"},
		Other:         "nan",
		AbsentDefault: "Gasoline",
	}

	Transmissions = Group{
		Prefix: "transmission",
		Values: []string{"CVT", "Dual Clutch", "M"},
		Other:  "nan",
	}

	WheelSystems = Group{
		Prefix:    "wheel_system",
		Values:    []string{"4X2", "AWD", "FWD", "RWD"},
		Other:     "nan",
		Canonical: strings.ToUpper,
	}

	ListingColors = Group{
		Prefix:    "listing_color",
		Values:    []string{"BLUE", "BROWN", "GOLD", "GRAY", "GREEN", "ORANGE", "PINK", "PURPLE", "RED", "SILVER", "TEAL", "WHITE", "YELLOW"},
		Other:     "UNKNOWN",
		Canonical: strings.ToUpper,
	}
)

// Groups returns the one-hot groups in column order.
func Groups() []Group {
	return []Group{BodyTypes, FuelTypes, Transmissions, WheelSystems, ListingColors}
}

var luxuryMakes = map[string]bool{
	"BMW":           true,
	"Mercedes-Benz": true,
	"Audi":          true,
	"Lexus":         true,
	"Acura":         true,
	"Infiniti":      true,
	"Cadillac":      true,
	"Lincoln":       true,
	"Porsche":       true,
	"Jaguar":        true,
	"Land Rover":    true,
	"Volvo":         true,
}

// IsLuxuryMake reports whether make is a luxury brand. The match is exact
// against the canonical capitalization.
func IsLuxuryMake(make string) bool {
	return luxuryMakes[make]
}
