package extraction

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FallbackExtract", func() {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	When("the filename matches a known merchant", func() {
		var record *ExtractedRecord

		BeforeEach(func() {
			record = FallbackExtract("starbucks_receipt_2024-03-15.jpg", now)
		})

		It("should resolve the merchant and category", func() {
			Expect(record.MerchantName).To(Equal("Starbucks"))
			Expect(record.Category).To(Equal(CategoryMeals))
		})

		It("should tag the record medium confidence", func() {
			Expect(record.Confidence).To(Equal(ConfidenceMedium))
		})

		It("should take the date from the filename", func() {
			Expect(record.ReceiptDate).To(Equal("2024-03-15"))
			Expect(record.DateSource).To(Equal(DateSourceEstimated))
		})

		It("should synthesize an amount in the pattern's range", func() {
			Expect(record.Amount).To(BeNumerically(">=", 4))
			Expect(record.Amount).To(BeNumerically("<=", 15.01))
		})

		It("should note that the record is estimated", func() {
			Expect(record.ExtractionNotes).To(Equal("estimated from filename pattern"))
		})
	})

	When("matching is case-insensitive", func() {
		It("should still resolve the merchant", func() {
			record := FallbackExtract("UBER_Trip.pdf", now)
			Expect(record.MerchantName).To(Equal("Uber"))
			Expect(record.Category).To(Equal(CategoryTravel))
		})
	})

	When("the filename matches nothing", func() {
		var record *ExtractedRecord

		BeforeEach(func() {
			record = FallbackExtract("IMG_20240601_001.jpg", now)
		})

		It("should use the placeholder merchant", func() {
			Expect(record.MerchantName).To(Equal("Unknown Merchant"))
			Expect(record.Category).To(Equal(CategoryOther))
		})

		It("should tag the record low confidence", func() {
			Expect(record.Confidence).To(Equal(ConfidenceLow))
		})

		It("should synthesize an amount in the generic range", func() {
			Expect(record.Amount).To(BeNumerically(">=", 5))
			Expect(record.Amount).To(BeNumerically("<=", 50.01))
		})
	})

	When("several keywords could match", func() {
		It("should take the first pattern in table order", func() {
			record := FallbackExtract("uber_eats_delta_airport.jpg", now)
			Expect(record.MerchantName).To(Equal("Uber"))
		})
	})
})
