package encoder

// Published defaults for absent optional inputs.
const (
	DefaultEngineDisplacement = 2500
	DefaultHorsepower         = 200
	DefaultEngineCylinders    = "I4"
	DefaultCityFuelEconomy    = 22.0
	DefaultHighwayFuelEconomy = 29.0
	DefaultLength             = 185.0
	DefaultWidth              = 75.0
	DefaultHeight             = 65.0
	DefaultWheelbase          = 110.0
	DefaultMaximumSeating     = 5
	DefaultFrontLegroom       = 42.0
	DefaultBackLegroom        = 35.0
	DefaultOwnerCount         = 1
)

// Listing attributes the service never receives, fixed at training-set norms.
const (
	DefaultDaysOnMarket   = 30
	DefaultFuelTankVolume = 16.0
	DefaultSellerRating   = 4.0
	DefaultFranchise      = true
	UnknownCategory       = "Unknown"
)

const highMileageThreshold = 100000

// Resolved is a Record with every optional field replaced by its value or
// its default.
type Resolved struct {
	MakeName  string
	ModelName string
	Year      int
	Mileage   int

	EngineDisplacement int
	Horsepower         int
	EngineCylinders    string
	CityFuelEconomy    float64
	HighwayFuelEconomy float64

	BodyType     Opt[string]
	FuelType     Opt[string]
	Transmission Opt[string]
	WheelSystem  Opt[string]
	ListingColor Opt[string]

	Length    float64
	Width     float64
	Height    float64
	Wheelbase float64

	MaximumSeating int
	FrontLegroom   float64
	BackLegroom    float64

	OwnerCount   int
	HasAccidents bool
	FrameDamaged bool
	Fleet        bool
	Salvage      bool
	TheftTitle   bool
}

// Resolve applies the default policy. Numeric fields that are absent or zero
// take their default, history flags default to false, owner count to 1 and
// cylinders to the inline-four label. Categorical one-hot sources stay
// optional because each group has its own absence policy.
func Resolve(r Record) Resolved {
	r = r.Normalize()
	return Resolved{
		MakeName:  r.MakeName,
		ModelName: r.ModelName,
		Year:      r.Year,
		Mileage:   r.Mileage,

		EngineDisplacement: orNonZero(r.EngineDisplacement, DefaultEngineDisplacement),
		Horsepower:         orNonZero(r.Horsepower, DefaultHorsepower),
		EngineCylinders:    orNonEmpty(r.EngineCylinders, DefaultEngineCylinders),
		CityFuelEconomy:    orNonZero(r.CityFuelEconomy, DefaultCityFuelEconomy),
		HighwayFuelEconomy: orNonZero(r.HighwayFuelEconomy, DefaultHighwayFuelEconomy),

		BodyType:     r.BodyType,
		FuelType:     r.FuelType,
		Transmission: r.Transmission,
		WheelSystem:  r.WheelSystem,
		ListingColor: r.ListingColor,

		Length:    orNonZero(r.Length, DefaultLength),
		Width:     orNonZero(r.Width, DefaultWidth),
		Height:    orNonZero(r.Height, DefaultHeight),
		Wheelbase: orNonZero(r.Wheelbase, DefaultWheelbase),

		MaximumSeating: orNonZero(r.MaximumSeating, DefaultMaximumSeating),
		FrontLegroom:   orNonZero(r.FrontLegroom, DefaultFrontLegroom),
		BackLegroom:    orNonZero(r.BackLegroom, DefaultBackLegroom),

		OwnerCount:   orNonZero(r.OwnerCount, DefaultOwnerCount),
		HasAccidents: r.HasAccidents.Or(false),
		FrameDamaged: r.FrameDamaged.Or(false),
		Fleet:        r.Fleet.Or(false),
		Salvage:      r.Salvage.Or(false),
		TheftTitle:   r.TheftTitle.Or(false),
	}
}
