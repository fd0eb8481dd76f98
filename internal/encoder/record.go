package encoder

import "strings"

// Record is a sparse description of a car. MakeName, ModelName, Year and
// Mileage are required and range-checked before encoding; every other field
// may be absent.
type Record struct {
	MakeName  string `json:"make_name"`
	ModelName string `json:"model_name"`
	Year      int    `json:"year"`
	Mileage   int    `json:"mileage"`

	EngineDisplacement Opt[int]     `json:"engine_displacement"`
	Horsepower         Opt[int]     `json:"horsepower"`
	EngineCylinders    Opt[string]  `json:"engine_cylinders"`
	CityFuelEconomy    Opt[float64] `json:"city_fuel_economy"`
	HighwayFuelEconomy Opt[float64] `json:"highway_fuel_economy"`

	BodyType     Opt[string] `json:"body_type"`
	FuelType     Opt[string] `json:"fuel_type"`
	Transmission Opt[string] `json:"transmission"`
	WheelSystem  Opt[string] `json:"wheel_system"`
	ListingColor Opt[string] `json:"listing_color"`

	Length    Opt[float64] `json:"length"`
	Width     Opt[float64] `json:"width"`
	Height    Opt[float64] `json:"height"`
	Wheelbase Opt[float64] `json:"wheelbase"`

	MaximumSeating Opt[int]     `json:"maximum_seating"`
	FrontLegroom   Opt[float64] `json:"front_legroom"`
	BackLegroom    Opt[float64] `json:"back_legroom"`

	OwnerCount   Opt[int]  `json:"owner_count"`
	HasAccidents Opt[bool] `json:"has_accidents"`
	FrameDamaged Opt[bool] `json:"frame_damaged"`
	Fleet        Opt[bool] `json:"fleet"`
	Salvage      Opt[bool] `json:"salvage"`
	TheftTitle   Opt[bool] `json:"theft_title"`
}

// Normalize trims the identity strings.
func (r Record) Normalize() Record {
	r.MakeName = strings.TrimSpace(r.MakeName)
	r.ModelName = strings.TrimSpace(r.ModelName)
	return r
}
