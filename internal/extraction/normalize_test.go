package extraction

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizeMerchant", func() {
	It("should strip promo suffixes after an asterisk", func() {
		Expect(NormalizeMerchant("UBER *TRIP HELP.UBER.COM")).To(Equal("Uber"))
	})

	It("should strip store numbers after a hash", func() {
		Expect(NormalizeMerchant("STARBUCKS #1234")).To(Equal("Starbucks"))
	})

	It("should strip bare four-digit store codes", func() {
		Expect(NormalizeMerchant("WALMART 5454 DALLAS TX")).To(Equal("Walmart"))
	})

	It("should strip location suffixes", func() {
		Expect(NormalizeMerchant("Chipotle - Seattle WA")).To(Equal("Chipotle"))
	})

	It("should collapse whitespace and title-case words", func() {
		Expect(NormalizeMerchant("  panera   BREAD  ")).To(Equal("Panera Bread"))
	})

	It("should substitute a placeholder for an empty result", func() {
		Expect(NormalizeMerchant("")).To(Equal("Unknown Merchant"))
		Expect(NormalizeMerchant("   ")).To(Equal("Unknown Merchant"))
		Expect(NormalizeMerchant("*PENDING")).To(Equal("Unknown Merchant"))
	})

	It("should be idempotent", func() {
		inputs := []string{
			"UBER *TRIP HELP.UBER.COM",
			"STARBUCKS #1234",
			"Chipotle - Seattle WA",
			"plain merchant",
			"",
		}
		for _, input := range inputs {
			once := NormalizeMerchant(input)
			Expect(NormalizeMerchant(once)).To(Equal(once))
		}
	})
})

var _ = Describe("NormalizeCurrency", func() {
	When("the amount carries a dollar sign", func() {
		It("should parse the value and map the symbol", func() {
			amount, code, symbol := NormalizeCurrency("$1,234.56", "USD")
			Expect(amount).To(Equal(1234.56))
			Expect(code).To(Equal("USD"))
			Expect(symbol).To(Equal("$"))
		})
	})

	When("the amount carries a euro sign", func() {
		It("should map to EUR", func() {
			amount, code, symbol := NormalizeCurrency("€45.00", "USD")
			Expect(amount).To(Equal(45.0))
			Expect(code).To(Equal("EUR"))
			Expect(symbol).To(Equal("€"))
		})
	})

	When("no symbol is present", func() {
		It("should fall back to the default currency with a plain dollar symbol", func() {
			amount, code, symbol := NormalizeCurrency("12.50", "eur")
			Expect(amount).To(Equal(12.5))
			Expect(code).To(Equal("EUR"))
			Expect(symbol).To(Equal("$"))
		})

		It("should default the default to USD", func() {
			_, code, _ := NormalizeCurrency("12.50", "")
			Expect(code).To(Equal("USD"))
		})
	})

	When("the amount has no numeric content", func() {
		It("should return zero", func() {
			amount, _, _ := NormalizeCurrency("free", "USD")
			Expect(amount).To(Equal(0.0))
		})
	})
})

var _ = Describe("ReparseDate", func() {
	It("should parse ISO dates", func() {
		t, ok := ReparseDate("2024-03-15")
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	})

	It("should parse US slash dates", func() {
		t, ok := ReparseDate("03/15/2024")
		Expect(ok).To(BeTrue())
		Expect(t.Format("2006-01-02")).To(Equal("2024-03-15"))
	})

	It("should resolve two-digit years below 50 to the 2000s", func() {
		t, ok := ReparseDate("3/15/24")
		Expect(ok).To(BeTrue())
		Expect(t.Format("2006-01-02")).To(Equal("2024-03-15"))
	})

	It("should resolve two-digit years of 50 and above to the 1900s", func() {
		t, ok := ReparseDate("12-31-99")
		Expect(ok).To(BeTrue())
		Expect(t.Format("2006-01-02")).To(Equal("1999-12-31"))
	})

	It("should reject impossible calendar dates", func() {
		_, ok := ReparseDate("02/31/24")
		Expect(ok).To(BeFalse())
	})

	It("should reject empty and non-date input", func() {
		_, ok := ReparseDate("")
		Expect(ok).To(BeFalse())
		_, ok = ReparseDate("not a date")
		Expect(ok).To(BeFalse())
	})
})
