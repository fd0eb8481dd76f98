package encoder

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refTime = time.Date(2025, time.July, 16, 12, 0, 0, 0, time.UTC) // a Wednesday

func minimalRecord() Record {
	return Record{MakeName: "Toyota", ModelName: "Camry", Year: 2020, Mileage: 40000}
}

func TestEncode_FullKeySetFromMinimalRecord(t *testing.T) {
	vec := Encode(minimalRecord(), refTime)

	names := FeatureNames()
	assert.Len(t, vec, len(names))
	for _, name := range names {
		v, ok := vec[name]
		require.True(t, ok, "missing feature %s", name)
		assert.NotNil(t, v, "nil feature %s", name)
	}
}

func TestEncode_KeySetIndependentOfInput(t *testing.T) {
	full := minimalRecord()
	full.BodyType = Some("Sedan")
	full.FuelType = Some("Hybrid")
	full.Transmission = Some("CVT")
	full.WheelSystem = Some("FWD")
	full.ListingColor = Some("RED")
	full.Horsepower = Some(203)

	a := Encode(minimalRecord(), refTime)
	b := Encode(full, refTime)
	assert.Len(t, b, len(a))
	for k := range a {
		_, ok := b[k]
		assert.True(t, ok, k)
	}
}

func TestEncode_ToyotaCamryScenario(t *testing.T) {
	vec := Encode(minimalRecord(), refTime)

	assert.Equal(t, 5, vec["car_age"])
	assert.Equal(t, false, vec["is_luxury_brand"])
	assert.Equal(t, true, vec["fuel_type_Gasoline"])
	for _, col := range FuelTypes.Columns() {
		if col != "fuel_type_Gasoline" {
			assert.Equal(t, false, vec[col], col)
		}
	}
	assert.Equal(t, 8000.0, vec["mileage_per_year"])
	assert.Equal(t, false, vec["high_mileage"])
}

func TestEncode_HighMileage(t *testing.T) {
	r := minimalRecord()
	r.Mileage = 150000
	assert.Equal(t, true, Encode(r, refTime)["high_mileage"])

	r.Mileage = 100000
	assert.Equal(t, false, Encode(r, refTime)["high_mileage"])
}

func TestEncode_Defaults(t *testing.T) {
	vec := Encode(minimalRecord(), refTime)

	assert.Equal(t, DefaultHorsepower, vec["horsepower"])
	assert.Equal(t, DefaultFrontLegroom, vec["front_legroom"])
	assert.Equal(t, DefaultBackLegroom, vec["back_legroom"])
	assert.Equal(t, DefaultEngineDisplacement, vec["engine_displacement"])
	assert.Equal(t, "I4", vec["engine_cylinders"])
	assert.Equal(t, 1, vec["owner_count"])
	for _, flag := range []string{"has_accidents", "frame_damaged", "fleet", "salvage", "theft_title"} {
		assert.Equal(t, false, vec[flag], flag)
	}
	assert.Equal(t, 25.5, vec["fuel_efficiency_combined"])
	assert.Equal(t, 200.0/2500.0, vec["power_per_displacement"])
	assert.Equal(t, "Quick_Sale", vec["market_time_category"])
	assert.Equal(t, "Unknown", vec["trim_name"])
	assert.Equal(t, "Toyota", vec["franchise_make"])
}

func TestEncode_ZeroNumericsTakeDefaults(t *testing.T) {
	r := minimalRecord()
	r.Horsepower = Some(0)
	r.OwnerCount = Some(0)
	r.Length = Some(0.0)

	vec := Encode(r, refTime)
	assert.Equal(t, DefaultHorsepower, vec["horsepower"])
	assert.Equal(t, DefaultOwnerCount, vec["owner_count"])
	assert.Equal(t, DefaultLength, vec["length"])
}

func TestEncode_SuppliedValuesWin(t *testing.T) {
	r := minimalRecord()
	r.Horsepower = Some(300)
	r.EngineDisplacement = Some(3000)
	r.CityFuelEconomy = Some(20.0)
	r.HighwayFuelEconomy = Some(30.0)
	r.HasAccidents = Some(true)
	r.EngineCylinders = Some("V6")

	vec := Encode(r, refTime)
	assert.Equal(t, 300, vec["horsepower"])
	assert.Equal(t, 0.1, vec["power_per_displacement"])
	assert.Equal(t, 25.0, vec["fuel_efficiency_combined"])
	assert.Equal(t, true, vec["has_accidents"])
	assert.Equal(t, "V6", vec["engine_cylinders"])
}

func TestEncode_OneHotGroups(t *testing.T) {
	groups := []struct {
		group      Group
		set        func(r *Record, v string)
		recognized string
	}{
		{BodyTypes, func(r *Record, v string) { r.BodyType = Some(v) }, "SUV / Crossover"},
		{Transmissions, func(r *Record, v string) { r.Transmission = Some(v) }, "CVT"},
		{WheelSystems, func(r *Record, v string) { r.WheelSystem = Some(v) }, "AWD"},
		{ListingColors, func(r *Record, v string) { r.ListingColor = Some(v) }, "SILVER"},
		{FuelTypes, func(r *Record, v string) { r.FuelType = Some(v) }, "Electric"},
	}

	for _, tt := range groups {
		t.Run(tt.group.Prefix, func(t *testing.T) {
			absent := Encode(minimalRecord(), refTime)
			for _, col := range tt.group.Columns() {
				want := tt.group.AbsentDefault != "" && col == tt.group.column(tt.group.AbsentDefault)
				assert.Equal(t, want, absent[col], "absent %s", col)
			}

			r := minimalRecord()
			tt.set(&r, tt.recognized)
			assertOnlyTrue(t, Encode(r, refTime), tt.group, tt.group.column(tt.recognized))

			r = minimalRecord()
			tt.set(&r, "Hovercraft")
			assertOnlyTrue(t, Encode(r, refTime), tt.group, tt.group.column(tt.group.Other))
		})
	}
}

func TestEncode_EmptyCategoricalIsAbsent(t *testing.T) {
	r := minimalRecord()
	r.BodyType = Some("  ")
	vec := Encode(r, refTime)
	for _, col := range BodyTypes.Columns() {
		assert.Equal(t, false, vec[col], col)
	}
}

func TestEncode_CanonicalColorAndWheelSystem(t *testing.T) {
	r := minimalRecord()
	r.ListingColor = Some("white")
	r.WheelSystem = Some("4x2")
	vec := Encode(r, refTime)
	assert.Equal(t, true, vec["listing_color_WHITE"])
	assert.Equal(t, true, vec["wheel_system_4X2"])
}

func assertOnlyTrue(t *testing.T, vec Vector, g Group, want string) {
	t.Helper()
	for _, col := range g.Columns() {
		assert.Equal(t, col == want, vec[col], col)
	}
}

func TestEncode_Luxury(t *testing.T) {
	r := minimalRecord()
	r.MakeName = "Land Rover"
	assert.Equal(t, true, Encode(r, refTime)["is_luxury_brand"])

	r.MakeName = "bmw"
	assert.Equal(t, false, Encode(r, refTime)["is_luxury_brand"])
}

func TestEncode_AgeAndMileagePerYear(t *testing.T) {
	r := minimalRecord()
	r.Year = 2025
	r.Mileage = 12000

	vec := Encode(r, refTime)
	assert.Equal(t, 0, vec["car_age"])
	assert.Equal(t, 12000.0, vec["mileage_per_year"])

	r.Year = 2026
	vec = Encode(r, refTime)
	assert.Equal(t, 0, vec["car_age"])
	assert.GreaterOrEqual(t, vec["mileage_per_year"].(float64), 0.0)
}

func TestEncode_ListingDateFeatures(t *testing.T) {
	vec := Encode(minimalRecord(), refTime)
	assert.Equal(t, 7, vec["listing_month"])
	assert.Equal(t, 2025, vec["listing_year"])
	assert.Equal(t, 2, vec["listing_day_of_week"])
	assert.Equal(t, false, vec["is_weekend_listing"])
	assert.Equal(t, "Summer", vec["listing_season"])

	sunday := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	vec = Encode(minimalRecord(), sunday)
	assert.Equal(t, 6, vec["listing_day_of_week"])
	assert.Equal(t, true, vec["is_weekend_listing"])
	assert.Equal(t, "Winter", vec["listing_season"])
}

func TestEncode_Idempotent(t *testing.T) {
	r := minimalRecord()
	r.BodyType = Some("Sedan")
	r.CityFuelEconomy = Some(31.5)

	assert.Equal(t, Encode(r, refTime), Encode(r, refTime))

	enc := New(refTime)
	assert.Equal(t, enc.Encode(r), enc.Encode(r))
}

func TestSeason(t *testing.T) {
	tests := map[time.Month]string{
		time.December: "Winter", time.January: "Winter", time.February: "Winter",
		time.March: "Spring", time.April: "Spring", time.May: "Spring",
		time.June: "Summer", time.July: "Summer", time.August: "Summer",
		time.September: "Fall", time.October: "Fall", time.November: "Fall",
	}
	for m, want := range tests {
		assert.Equal(t, want, Season(m), m.String())
	}
}

func TestMarketTimeBucket(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, "Quick_Sale"}, {30, "Quick_Sale"}, {31, "Normal"}, {90, "Normal"},
		{91, "Slow"}, {180, "Slow"}, {181, "Very_Slow"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MarketTimeBucket(tt.days), "days=%d", tt.days)
	}
}

func TestRecordJSON_DirtyOptionalFieldsAreAbsent(t *testing.T) {
	body := `{
		"make_name": " Honda ", "model_name": "Civic", "year": 2018, "mileage": 60000,
		"horsepower": "158",
		"engine_displacement": "big",
		"front_legroom": null,
		"has_accidents": "true",
		"fleet": 7,
		"body_type": 12,
		"owner_count": 2.5,
		"maximum_seating": 5.0
	}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	hp, ok := r.Horsepower.Get()
	assert.True(t, ok)
	assert.Equal(t, 158, hp)
	assert.False(t, r.EngineDisplacement.Present())
	assert.False(t, r.FrontLegroom.Present())
	assert.True(t, r.HasAccidents.Or(false))
	assert.False(t, r.Fleet.Present())
	assert.False(t, r.BodyType.Present())
	assert.False(t, r.OwnerCount.Present())
	seats, ok := r.MaximumSeating.Get()
	assert.True(t, ok)
	assert.Equal(t, 5, seats)

	vec := Encode(r, refTime)
	assert.Equal(t, "Honda", vec["make_name"])
	assert.Equal(t, DefaultEngineDisplacement, vec["engine_displacement"])
	assert.Equal(t, DefaultOwnerCount, vec["owner_count"])
}

func TestOpt_IntegralFloatsCoerceToInt(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		present bool
	}{
		{raw: `250`, want: 250, present: true},
		{raw: `250.0`, want: 250, present: true},
		{raw: `"250.0"`, want: 250, present: true},
		{raw: `-3.0`, want: -3, present: true},
		{raw: `250.5`, present: false},
		{raw: `1e300`, present: false},
		{raw: `"fast"`, present: false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var o Opt[int]
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &o))
			v, ok := o.Get()
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestResolve_IsolatedDefaults(t *testing.T) {
	res := Resolve(Record{MakeName: "Ford", ModelName: "F-150", Year: 2015, Mileage: 1})
	assert.Equal(t, DefaultWheelbase, res.Wheelbase)
	assert.Equal(t, DefaultMaximumSeating, res.MaximumSeating)
	assert.Equal(t, DefaultCityFuelEconomy, res.CityFuelEconomy)
	assert.False(t, res.Salvage)
	assert.False(t, res.BodyType.Present())
}
