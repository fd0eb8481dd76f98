package market

import (
	"strings"
	"time"
)

// Weight is the curated market share attached to a make or model.
type Weight struct {
	Count      int
	AvgPrice   float64
	Percentage float64
}

// DefaultWeight applies to recognized names missing from a weight table.
var DefaultWeight = Weight{Count: 25000, AvgPrice: 20000, Percentage: 2.0}

// recognizedMakes maps the lower-cased registry spelling to its display name.
// Display names are title case except for the brands styled as acronyms
// (BMW, GMC, MINI); those keep their brand spelling so they match the weight
// tables and the encoder's luxury set.
var recognizedMakes = map[string]string{
	"acura":         "Acura",
	"alfa romeo":    "Alfa Romeo",
	"audi":          "Audi",
	"bmw":           "BMW",
	"buick":         "Buick",
	"cadillac":      "Cadillac",
	"chevrolet":     "Chevrolet",
	"chrysler":      "Chrysler",
	"dodge":         "Dodge",
	"fiat":          "Fiat",
	"ford":          "Ford",
	"genesis":       "Genesis",
	"gmc":           "GMC",
	"honda":         "Honda",
	"hyundai":       "Hyundai",
	"infiniti":      "Infiniti",
	"jaguar":        "Jaguar",
	"jeep":          "Jeep",
	"kia":           "Kia",
	"land rover":    "Land Rover",
	"lexus":         "Lexus",
	"lincoln":       "Lincoln",
	"mazda":         "Mazda",
	"mercedes-benz": "Mercedes-Benz",
	"mini":          "MINI",
	"mitsubishi":    "Mitsubishi",
	"nissan":        "Nissan",
	"porsche":       "Porsche",
	"ram":           "Ram",
	"subaru":        "Subaru",
	"tesla":         "Tesla",
	"toyota":        "Toyota",
	"volkswagen":    "Volkswagen",
	"volvo":         "Volvo",
}

// CanonicalMake returns the display name for a recognized manufacturer.
func CanonicalMake(name string) (string, bool) {
	canonical, ok := recognizedMakes[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

var makeWeights = map[string]Weight{
	"Toyota":        {245678, 18500, 12.3},
	"Honda":         {198432, 17800, 9.9},
	"Ford":          {187654, 16200, 9.4},
	"Chevrolet":     {176543, 15800, 8.8},
	"Nissan":        {154321, 16500, 7.7},
	"Hyundai":       {134567, 14200, 6.7},
	"Kia":           {112345, 15100, 5.6},
	"Jeep":          {104321, 22400, 5.2},
	"BMW":           {98765, 28900, 4.9},
	"Subaru":        {92345, 19400, 4.6},
	"Mercedes-Benz": {87654, 32100, 4.4},
	"Ram":           {81234, 29800, 4.1},
	"Volkswagen":    {76543, 19800, 3.8},
	"GMC":           {71234, 31200, 3.6},
	"Mazda":         {68765, 18700, 3.4},
	"Audi":          {65432, 31500, 3.3},
	"Lexus":         {58765, 33400, 2.9},
	"Dodge":         {54321, 19900, 2.7},
	"Tesla":         {43210, 41200, 2.2},
	"Buick":         {32109, 20500, 1.6},
	"Cadillac":      {29876, 30800, 1.5},
	"Acura":         {27654, 24300, 1.4},
	"Volvo":         {21098, 27600, 1.1},
	"Porsche":       {12345, 58900, 0.6},
}

// MakeWeight looks up the curated weight for a canonical make name.
func MakeWeight(name string) Weight {
	if w, ok := makeWeights[name]; ok {
		return w
	}
	return DefaultWeight
}

var modelWeights = map[string]map[string]Weight{
	"Toyota": {
		"Camry":      {Count: 89450, AvgPrice: 24800},
		"Corolla":    {Count: 72150, AvgPrice: 19600},
		"RAV4":       {Count: 70210, AvgPrice: 27300},
		"Tacoma":     {Count: 48760, AvgPrice: 31800},
		"Highlander": {Count: 41230, AvgPrice: 33500},
		"Prius":      {Count: 27890, AvgPrice: 17900},
		"Tundra":     {Count: 25640, AvgPrice: 38700},
		"4Runner":    {Count: 22310, AvgPrice: 34900},
		"Sienna":     {Count: 18760, AvgPrice: 30200},
	},
	"Honda": {
		"Accord":  {Count: 78320, AvgPrice: 25200},
		"Civic":   {Count: 68940, AvgPrice: 21800},
		"CR-V":    {Count: 61230, AvgPrice: 26700},
		"Pilot":   {Count: 33450, AvgPrice: 31400},
		"Odyssey": {Count: 24570, AvgPrice: 28900},
		"HR-V":    {Count: 19870, AvgPrice: 22100},
		"Fit":     {Count: 12340, AvgPrice: 14600},
	},
	"Ford": {
		"F-150":    {Count: 76890, AvgPrice: 32400},
		"Escape":   {Count: 45670, AvgPrice: 19800},
		"Explorer": {Count: 43210, AvgPrice: 27600},
		"Mustang":  {Count: 28760, AvgPrice: 26900},
		"Fusion":   {Count: 27650, AvgPrice: 15400},
		"Edge":     {Count: 21340, AvgPrice: 22800},
		"Ranger":   {Count: 16540, AvgPrice: 29300},
	},
	"Chevrolet": {
		"Silverado": {Count: 63420, AvgPrice: 35600},
		"Malibu":    {Count: 58930, AvgPrice: 20400},
		"Equinox":   {Count: 51230, AvgPrice: 21900},
		"Tahoe":     {Count: 24560, AvgPrice: 42300},
		"Traverse":  {Count: 22340, AvgPrice: 27800},
		"Camaro":    {Count: 15430, AvgPrice: 27100},
		"Colorado":  {Count: 14320, AvgPrice: 28400},
	},
	"Nissan": {
		"Altima":     {Count: 65780, AvgPrice: 22100},
		"Sentra":     {Count: 52340, AvgPrice: 17800},
		"Rogue":      {Count: 49870, AvgPrice: 23600},
		"Pathfinder": {Count: 19870, AvgPrice: 27400},
		"Frontier":   {Count: 15670, AvgPrice: 27900},
		"Maxima":     {Count: 12340, AvgPrice: 23100},
	},
	"Hyundai": {
		"Elantra":  {Count: 54670, AvgPrice: 18900},
		"Sonata":   {Count: 38760, AvgPrice: 20700},
		"Tucson":   {Count: 34560, AvgPrice: 23200},
		"Santa Fe": {Count: 28790, AvgPrice: 26100},
		"Kona":     {Count: 16540, AvgPrice: 21300},
	},
	"BMW": {
		"3 Series": {Count: 29870, AvgPrice: 29400},
		"X5":       {Count: 21340, AvgPrice: 41800},
		"X3":       {Count: 19870, AvgPrice: 35200},
		"5 Series": {Count: 17650, AvgPrice: 36900},
	},
	"Mercedes-Benz": {
		"C-Class": {Count: 26540, AvgPrice: 31200},
		"E-Class": {Count: 19870, AvgPrice: 38600},
		"GLE":     {Count: 15430, AvgPrice: 47300},
		"GLC":     {Count: 14320, AvgPrice: 39800},
	},
}

// ModelWeight looks up the curated weight for a model of a canonical make.
func ModelWeight(makeName, model string) Weight {
	if w, ok := modelWeights[makeName][model]; ok {
		return w
	}
	return Weight{Count: DefaultWeight.Count, AvgPrice: DefaultWeight.AvgPrice}
}

// fallbackMakes is served verbatim, in this order, when the registry is unavailable.
var fallbackMakes = []MakeEntry{
	{Make: "Toyota", Count: 245678, AvgPrice: 18500, Percentage: 12.3},
	{Make: "Honda", Count: 198432, AvgPrice: 17800, Percentage: 9.9},
	{Make: "Ford", Count: 187654, AvgPrice: 16200, Percentage: 9.4},
	{Make: "Chevrolet", Count: 176543, AvgPrice: 15800, Percentage: 8.8},
	{Make: "Nissan", Count: 154321, AvgPrice: 16500, Percentage: 7.7},
	{Make: "BMW", Count: 98765, AvgPrice: 28900, Percentage: 4.9},
	{Make: "Mercedes-Benz", Count: 87654, AvgPrice: 32100, Percentage: 4.4},
	{Make: "Hyundai", Count: 134567, AvgPrice: 14200, Percentage: 6.7},
	{Make: "Volkswagen", Count: 76543, AvgPrice: 19800, Percentage: 3.8},
	{Make: "Audi", Count: 65432, AvgPrice: 31500, Percentage: 3.3},
}

// FallbackMakes returns a copy of the static make list.
func FallbackMakes() []MakeEntry {
	return append([]MakeEntry(nil), fallbackMakes...)
}

// FallbackModels returns the curated models for a make, ranked by count.
// Makes without curated models yield an empty list.
func FallbackModels(makeName string) []ModelEntry {
	canonical, ok := CanonicalMake(makeName)
	if !ok {
		canonical = makeName
	}
	curated := modelWeights[canonical]
	models := make([]ModelEntry, 0, len(curated))
	for name, w := range curated {
		models = append(models, ModelEntry{Model: name, Make: canonical, Count: w.Count, AvgPrice: w.AvgPrice})
	}
	rankModels(models)
	return truncate(models, maxModels)
}

var bodyTypes = []CategoryEntry{
	{Type: "Sedan", Count: 567890, Percentage: 28.4, AvgPrice: 18200},
	{Type: "SUV / Crossover", Count: 498765, Percentage: 24.9, AvgPrice: 23800},
	{Type: "Pickup Truck", Count: 234567, Percentage: 11.7, AvgPrice: 28900},
	{Type: "Coupe", Count: 187654, Percentage: 9.4, AvgPrice: 22100},
	{Type: "Hatchback", Count: 156789, Percentage: 7.8, AvgPrice: 16500},
	{Type: "Wagon", Count: 98765, Percentage: 4.9, AvgPrice: 19800},
	{Type: "Minivan", Count: 87654, Percentage: 4.4, AvgPrice: 21200},
	{Type: "Van", Count: 45678, Percentage: 2.3, AvgPrice: 25600},
}

var fuelTypes = []CategoryEntry{
	{Type: "Gasoline", Count: 1654321, Percentage: 82.7, AvgPrice: 19200},
	{Type: "Hybrid", Count: 198765, Percentage: 9.9, AvgPrice: 22800},
	{Type: "Electric", Count: 87654, Percentage: 4.4, AvgPrice: 28900},
	{Type: "Diesel", Count: 45678, Percentage: 2.3, AvgPrice: 24100},
	{Type: "Flex Fuel Vehicle", Count: 12345, Percentage: 0.6, AvgPrice: 18500},
	{Type: "Compressed Natural Gas", Count: 2345, Percentage: 0.1, AvgPrice: 21000},
}

func BodyTypes() []CategoryEntry { return append([]CategoryEntry(nil), bodyTypes...) }

func FuelTypes() []CategoryEntry { return append([]CategoryEntry(nil), fuelTypes...) }

var dataSources = []DataSource{
	{
		Name:            "NHTSA Vehicle API",
		Description:     "National Highway Traffic Safety Administration vehicle database",
		URL:             "https://vpic.nhtsa.dot.gov/api/",
		Type:            "Government",
		Coverage:        "Vehicle makes, models, and specifications",
		UpdateFrequency: "Real-time",
	},
	{
		Name:            "Market Analysis",
		Description:     "Aggregated market data and trends",
		Type:            "Analysis",
		Coverage:        "Price trends, depreciation patterns",
		UpdateFrequency: "Daily",
	},
	{
		Name:            "Dealer Networks",
		Description:     "Automotive dealer inventory and pricing data",
		Type:            "Commercial",
		Coverage:        "Current market prices, inventory levels",
		UpdateFrequency: "Hourly",
	},
	{
		Name:            "Auction Data",
		Description:     "Vehicle auction results and wholesale prices",
		Type:            "Commercial",
		Coverage:        "Wholesale values, market demand indicators",
		UpdateFrequency: "Weekly",
	},
}

// Catalogue describes the data sources behind the statistics endpoints.
func Catalogue(now time.Time) DataCatalogue {
	return DataCatalogue{
		Sources: append([]DataSource(nil), dataSources...),
		Quality: DataQuality{
			AccuracyRate:       98.3,
			CoveragePercentage: 95.7,
			FreshnessScore:     92.1,
			TotalRecords:       2847392,
		},
		LastUpdated: now,
		UpdateSchedule: map[string]string{
			"statistics":  "Every 6 hours",
			"trends":      "Daily at 2:00 AM EST",
			"market_data": "Real-time streaming",
		},
	}
}
