package extraction

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ReconcileDate", func() {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	When("the raw date is ISO and inside the window", func() {
		It("should keep it with high confidence", func() {
			date, confidence := ReconcileDate("2024-06-10", "receipt.jpg", now)
			Expect(date).To(Equal("2024-06-10"))
			Expect(confidence).To(Equal(ConfidenceHigh))
		})
	})

	When("the raw date is MM/DD/YYYY", func() {
		It("should canonicalize to ISO with high confidence", func() {
			date, confidence := ReconcileDate("03/15/2024", "receipt.jpg", now)
			Expect(date).To(Equal("2024-03-15"))
			Expect(confidence).To(Equal(ConfidenceHigh))
		})
	})

	When("the raw date is MM-DD-YYYY", func() {
		It("should canonicalize to ISO with high confidence", func() {
			date, confidence := ReconcileDate("03-15-2024", "receipt.jpg", now)
			Expect(date).To(Equal("2024-03-15"))
			Expect(confidence).To(Equal(ConfidenceHigh))
		})
	})

	When("the raw date is exactly one year ago", func() {
		It("should be accepted", func() {
			date, confidence := ReconcileDate("2023-06-15", "receipt.jpg", now)
			Expect(date).To(Equal("2023-06-15"))
			Expect(confidence).To(Equal(ConfidenceHigh))
		})
	})

	When("the raw date is tomorrow", func() {
		It("should be accepted", func() {
			date, confidence := ReconcileDate("2024-06-16", "receipt.jpg", now)
			Expect(date).To(Equal("2024-06-16"))
			Expect(confidence).To(Equal(ConfidenceHigh))
		})
	})

	When("the raw date is older than one year", func() {
		It("should fall back to the filename date with medium confidence", func() {
			date, confidence := ReconcileDate("2020-01-01", "receipt_2024-03-15.jpg", now)
			Expect(date).To(Equal("2024-03-15"))
			Expect(confidence).To(Equal(ConfidenceMedium))
		})
	})

	When("the raw date is beyond tomorrow", func() {
		It("should not be trusted", func() {
			_, confidence := ReconcileDate("2024-06-20", "receipt.jpg", now)
			Expect(confidence).To(Equal(ConfidenceLow))
		})
	})

	When("the raw date is unparseable and the filename has no date", func() {
		It("should randomize within the trailing 14 days with low confidence", func() {
			date, confidence := ReconcileDate("soon", "receipt.jpg", now)
			Expect(confidence).To(Equal(ConfidenceLow))

			t, err := time.Parse("2006-01-02", date)
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(BeTemporally(">", now.AddDate(0, 0, -14)))
			Expect(t).To(BeTemporally("<=", now))
		})
	})
})

var _ = Describe("EstimateDate", func() {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	When("the filename embeds an ISO date", func() {
		It("should use it with medium confidence", func() {
			date, confidence := EstimateDate("starbucks_receipt_2024-03-15.jpg", now)
			Expect(date).To(Equal("2024-03-15"))
			Expect(confidence).To(Equal(ConfidenceMedium))
		})
	})

	When("the filename embeds an underscore-separated date", func() {
		It("should use it with medium confidence", func() {
			date, confidence := EstimateDate("IMG_2024_03_15.png", now)
			Expect(date).To(Equal("2024-03-15"))
			Expect(confidence).To(Equal(ConfidenceMedium))
		})
	})

	When("the filename embeds a US-format date", func() {
		It("should use it with medium confidence", func() {
			date, confidence := EstimateDate("receipt_03-15-2024.pdf", now)
			Expect(date).To(Equal("2024-03-15"))
			Expect(confidence).To(Equal(ConfidenceMedium))
		})
	})

	When("the filename date is impossible", func() {
		It("should reject it and randomize", func() {
			_, confidence := EstimateDate("receipt_2024-02-31.jpg", now)
			Expect(confidence).To(Equal(ConfidenceLow))
		})
	})

	When("the filename date is outside the plausibility window", func() {
		It("should reject it and randomize", func() {
			_, confidence := EstimateDate("receipt_2019-03-15.jpg", now)
			Expect(confidence).To(Equal(ConfidenceLow))
		})
	})

	When("the filename has no date", func() {
		It("should randomize within the trailing 14 days", func() {
			date, confidence := EstimateDate("receipt.jpg", now)
			Expect(confidence).To(Equal(ConfidenceLow))

			t, err := time.Parse("2006-01-02", date)
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(BeTemporally(">", now.AddDate(0, 0, -14)))
			Expect(t).To(BeTemporally("<=", now))
		})
	})
})
