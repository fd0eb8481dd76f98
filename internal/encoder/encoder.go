package encoder

import (
	"time"
)

// Vector maps feature names to scalar values (int, float64, bool or string).
// Every Vector produced by Encode has exactly the keys in FeatureNames.
type Vector map[string]any

// Categorical feature columns, in the order the model was trained with.
var CategoricalFeatures = []string{
	"city", "dealer_zip", "engine_cylinders", "franchise_make",
	"make_name", "model_name", "sp_name", "torque", "transmission_display",
	"trim_name", "listing_season", "market_time_category",
}

var numericFeatures = []string{
	"back_legroom", "city_fuel_economy", "daysonmarket", "engine_displacement",
	"fleet", "frame_damaged", "franchise_dealer", "front_legroom",
	"fuel_tank_volume", "has_accidents", "height", "highway_fuel_economy",
	"horsepower", "isCab", "is_new", "length", "maximum_seating", "mileage",
	"owner_count", "salvage", "seller_rating", "theft_title", "wheelbase",
	"width", "year",
}

var derivedFeatures = []string{
	"listing_month", "listing_year", "listing_day_of_week", "is_weekend_listing",
	"car_age", "mileage_per_year", "fuel_efficiency_combined",
	"power_per_displacement", "is_luxury_brand", "high_mileage",
}

var featureNames = buildFeatureNames()

func buildFeatureNames() []string {
	names := make([]string, 0, 96)
	names = append(names, numericFeatures...)
	for _, c := range CategoricalFeatures {
		if c == "listing_season" || c == "market_time_category" {
			continue
		}
		names = append(names, c)
	}
	names = append(names, derivedFeatures...)
	names = append(names, "listing_season", "market_time_category")
	for _, g := range Groups() {
		names = append(names, g.Columns()...)
	}
	return names
}

// FeatureNames returns the fixed, ordered key set of every Vector.
func FeatureNames() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// Encoder converts records using a reference time for age and listing-date
// features. A zero reference means the clock is read once per Encode.
type Encoder struct {
	reference time.Time
	now       func() time.Time
}

func New(reference time.Time) *Encoder {
	return &Encoder{reference: reference, now: time.Now}
}

func (e *Encoder) ReferenceTime() time.Time {
	if !e.reference.IsZero() {
		return e.reference
	}
	return e.now()
}

func (e *Encoder) Encode(r Record) Vector {
	return Encode(r, e.ReferenceTime())
}

// Encode maps r to a complete feature vector. It has no error conditions:
// r's required fields are assumed validated and every optional field resolves
// to a default.
func Encode(r Record, ref time.Time) Vector {
	res := Resolve(r)
	vec := make(Vector, len(featureNames))

	vec["back_legroom"] = res.BackLegroom
	vec["city_fuel_economy"] = res.CityFuelEconomy
	vec["daysonmarket"] = DefaultDaysOnMarket
	vec["engine_displacement"] = res.EngineDisplacement
	vec["fleet"] = res.Fleet
	vec["frame_damaged"] = res.FrameDamaged
	vec["franchise_dealer"] = DefaultFranchise
	vec["front_legroom"] = res.FrontLegroom
	vec["fuel_tank_volume"] = DefaultFuelTankVolume
	vec["has_accidents"] = res.HasAccidents
	vec["height"] = res.Height
	vec["highway_fuel_economy"] = res.HighwayFuelEconomy
	vec["horsepower"] = res.Horsepower
	vec["isCab"] = false
	vec["is_new"] = false
	vec["length"] = res.Length
	vec["maximum_seating"] = res.MaximumSeating
	vec["mileage"] = res.Mileage
	vec["owner_count"] = res.OwnerCount
	vec["salvage"] = res.Salvage
	vec["seller_rating"] = DefaultSellerRating
	vec["theft_title"] = res.TheftTitle
	vec["wheelbase"] = res.Wheelbase
	vec["width"] = res.Width
	vec["year"] = res.Year

	vec["city"] = UnknownCategory
	vec["dealer_zip"] = UnknownCategory
	vec["engine_cylinders"] = res.EngineCylinders
	vec["franchise_make"] = res.MakeName
	vec["make_name"] = res.MakeName
	vec["model_name"] = res.ModelName
	vec["sp_name"] = UnknownCategory
	vec["torque"] = UnknownCategory
	vec["transmission_display"] = UnknownCategory
	vec["trim_name"] = UnknownCategory

	age := VehicleAge(res.Year, ref)
	weekday := ListingDayOfWeek(ref)
	vec["listing_month"] = int(ref.Month())
	vec["listing_year"] = ref.Year()
	vec["listing_day_of_week"] = weekday
	vec["is_weekend_listing"] = weekday >= 5
	vec["car_age"] = age
	vec["mileage_per_year"] = MileagePerYear(res.Mileage, age)
	vec["fuel_efficiency_combined"] = (res.CityFuelEconomy + res.HighwayFuelEconomy) / 2
	vec["power_per_displacement"] = float64(res.Horsepower) / float64(res.EngineDisplacement)
	vec["is_luxury_brand"] = IsLuxuryMake(res.MakeName)
	vec["high_mileage"] = res.Mileage > highMileageThreshold
	vec["listing_season"] = Season(ref.Month())
	vec["market_time_category"] = MarketTimeBucket(DefaultDaysOnMarket)

	BodyTypes.Encode(vec, res.BodyType)
	FuelTypes.Encode(vec, res.FuelType)
	Transmissions.Encode(vec, res.Transmission)
	WheelSystems.Encode(vec, res.WheelSystem)
	ListingColors.Encode(vec, res.ListingColor)

	return vec
}

// VehicleAge is the reference year minus the model year, never negative.
func VehicleAge(year int, ref time.Time) int {
	if age := ref.Year() - year; age > 0 {
		return age
	}
	return 0
}

// MileagePerYear divides by at least one year so new cars do not divide by zero.
func MileagePerYear(mileage, age int) float64 {
	return float64(mileage) / float64(max(1, age))
}

// ListingDayOfWeek numbers days from Monday (0) to Sunday (6).
func ListingDayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func Season(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Fall"
	}
}

// MarketTimeBucket bands days on market using the model's training labels.
func MarketTimeBucket(days int) string {
	switch {
	case days <= 30:
		return "Quick_Sale"
	case days <= 90:
		return "Normal"
	case days <= 180:
		return "Slow"
	default:
		return "Very_Slow"
	}
}
