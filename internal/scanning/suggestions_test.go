package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Suggestions", func() {
	Describe("Changes", func() {
		It("counts fields with a confidence below 1", func() {
			s := &Suggestions{
				Vendor:        SuggestedText{Value: "Acme Corp", Confidence: 0.7},
				InvoiceNumber: SuggestedText{Value: "1", Confidence: 1},
				InvoiceDate:   SuggestedText{Value: "2024-01-01", Confidence: 1},
				LineItems: []SuggestedLineItem{
					{Description: SuggestedText{Confidence: 1}, Amount: SuggestedNumber{Confidence: 0.2}},
				},
				TotalAmount: SuggestedNumber{Value: 5, Confidence: 0.9},
			}
			Expect(s.Changes()).To(Equal(3))
		})

		It("is zero when nothing should change", func() {
			s := &Suggestions{
				Vendor:        SuggestedText{Confidence: 1},
				InvoiceNumber: SuggestedText{Confidence: 1},
				InvoiceDate:   SuggestedText{Confidence: 1},
				TotalAmount:   SuggestedNumber{Confidence: 1},
			}
			Expect(s.Changes()).To(BeZero())
		})
	})

	Describe("suggestionPrompt", func() {
		It("lists the data under review", func() {
			prompt := suggestionPrompt(SuggestionInput{
				Vendor:        "Acme",
				InvoiceNumber: "INV-7",
				InvoiceDate:   "2024-01-01",
				LineItems:     []SuggestionLineItem{{Description: "Paper", Amount: 12.5}},
				TotalAmount:   12.5,
			})
			Expect(prompt).To(ContainSubstring("Vendor: Acme\n"))
			Expect(prompt).To(ContainSubstring("- Description: Paper, Amount: 12.50\n"))
			Expect(prompt).To(ContainSubstring("Total Amount: 12.50\n"))
		})
	})
})
