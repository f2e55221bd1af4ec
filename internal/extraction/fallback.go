package extraction

import (
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

// merchantPattern maps a filename keyword to a canonical merchant, its
// category, and a plausible amount range for synthesized values.
type merchantPattern struct {
	keyword  string
	merchant string
	category Category
	minAmt   float64
	maxAmt   float64
}

// merchantPatterns is scanned in order; the first keyword that substring-
// matches the lower-cased filename wins. The amount ranges are product
// tuning constants carried over as-is.
var merchantPatterns = []merchantPattern{
	// Food and coffee
	{"starbucks", "Starbucks", CategoryMeals, 4, 15},
	{"dunkin", "Dunkin", CategoryMeals, 3, 12},
	{"mcdonald", "McDonald's", CategoryMeals, 6, 20},
	{"chipotle", "Chipotle", CategoryMeals, 8, 25},
	{"subway", "Subway", CategoryMeals, 6, 18},
	{"panera", "Panera Bread", CategoryMeals, 8, 22},
	{"doordash", "DoorDash", CategoryMeals, 15, 60},
	{"grubhub", "Grubhub", CategoryMeals, 15, 60},
	// Ride share and fuel
	{"uber", "Uber", CategoryTravel, 8, 45},
	{"lyft", "Lyft", CategoryTravel, 8, 45},
	{"shell", "Shell", CategoryTravel, 20, 80},
	{"chevron", "Chevron", CategoryTravel, 20, 80},
	{"exxon", "Exxon", CategoryTravel, 20, 80},
	// Lodging and airlines
	{"marriott", "Marriott", CategoryTravel, 120, 400},
	{"hilton", "Hilton", CategoryTravel, 120, 400},
	{"airbnb", "Airbnb", CategoryTravel, 80, 350},
	{"delta", "Delta Air Lines", CategoryTravel, 150, 600},
	{"united", "United Airlines", CategoryTravel, 150, 600},
	{"southwest", "Southwest Airlines", CategoryTravel, 100, 450},
	// Office supplies and general retail
	{"staples", "Staples", CategorySupplies, 10, 120},
	{"office depot", "Office Depot", CategorySupplies, 10, 120},
	{"officedepot", "Office Depot", CategorySupplies, 10, 120},
	{"best buy", "Best Buy", CategorySupplies, 25, 300},
	{"bestbuy", "Best Buy", CategorySupplies, 25, 300},
	{"amazon", "Amazon", CategorySupplies, 10, 150},
	{"walmart", "Walmart", CategorySupplies, 15, 120},
	{"target", "Target", CategorySupplies, 15, 120},
	{"costco", "Costco", CategorySupplies, 40, 250},
}

const (
	fallbackMerchant = "Unknown Merchant"
	fallbackMinAmt   = 5
	fallbackMaxAmt   = 50
)

// FallbackExtract synthesizes an ExtractedRecord from filename heuristics
// alone. It is invoked whenever the vision path fails for any reason, and
// its amount is explicitly a placeholder, not a measurement; the confidence
// tag keeps it routed to review downstream.
func FallbackExtract(filename string, now time.Time) *ExtractedRecord {
	lower := strings.ToLower(filename)

	merchant := fallbackMerchant
	category := CategoryOther
	minAmt, maxAmt := float64(fallbackMinAmt), float64(fallbackMaxAmt)
	confidence := ConfidenceLow

	for _, p := range merchantPatterns {
		if strings.Contains(lower, p.keyword) {
			merchant = p.merchant
			category = p.category
			minAmt, maxAmt = p.minAmt, p.maxAmt
			confidence = ConfidenceMedium
			break
		}
	}

	date, _ := EstimateDate(filename, now)

	return &ExtractedRecord{
		MerchantName:    merchant,
		Amount:          synthesizeAmount(minAmt, maxAmt),
		Category:        category,
		ReceiptDate:     date,
		Confidence:      confidence,
		DateSource:      DateSourceEstimated,
		ExtractionNotes: "estimated from filename pattern",
	}
}

// synthesizeAmount samples uniformly within [min, max] with a small
// sub-cent jitter so synthesized values don't cluster on round numbers,
// rounded to two decimals.
func synthesizeAmount(min, max float64) float64 {
	amount := min + rand.Float64()*(max-min)
	amount += rand.Float64() * 0.009
	return math.Round(amount*100) / 100
}
