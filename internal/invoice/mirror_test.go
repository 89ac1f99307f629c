package invoice

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Mirror format", func() {
	invoices := []Invoice{
		{
			ID:            "b",
			PDFFileName:   "b.pdf",
			Vendor:        "Globex",
			InvoiceNumber: "G-1",
			InvoiceDate:   "2024-02-02",
			LineItems:     []LineItem{{Description: "Service", Quantity: 1, UnitPrice: 7.5, Amount: 7.5}},
			TotalAmount:   7.5,
			CreatedAt:     "2024-02-02T08:00:00.000Z",
		},
		{ID: "a", Vendor: "Acme", LineItems: []LineItem{}, CreatedAt: "2024-02-01T08:00:00.000Z"},
	}

	Describe("encodeMirror", func() {
		It("writes the version and camelCase fields", func() {
			data, err := encodeMirror(invoices[:1])
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{
				"version": 1,
				"invoices": [{
					"id": "b",
					"pdfFileName": "b.pdf",
					"vendor": "Globex",
					"invoiceNumber": "G-1",
					"invoiceDate": "2024-02-02",
					"lineItems": [{"description": "Service", "quantity": 1, "unitPrice": 7.5, "amount": 7.5}],
					"totalAmount": 7.5,
					"createdAt": "2024-02-02T08:00:00.000Z"
				}]
			}`))
		})

		It("writes an empty collection as an empty array", func() {
			data, err := encodeMirror(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{"version":1,"invoices":[]}`))
		})
	})

	Describe("decodeMirror", func() {
		It("reads back what encodeMirror wrote, in order", func() {
			data, err := encodeMirror(invoices)
			Expect(err).NotTo(HaveOccurred())

			decoded, err := decodeMirror(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(invoices))
		})

		It("reads a bare array", func() {
			decoded, err := decodeMirror([]byte(` [{"id":"x","vendor":"Acme"}]`))
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(HaveLen(1))
			Expect(decoded[0].ID).To(Equal("x"))
		})

		DescribeTable("rejects unusable data",
			func(data string) {
				_, err := decodeMirror([]byte(data))
				Expect(err).To(HaveOccurred())
			},
			Entry("empty", ""),
			Entry("whitespace", "  \n"),
			Entry("truncated", `{"version":1,"invoices":[`),
			Entry("wrong shape", `"hello"`),
			Entry("missing version", `{"invoices":[]}`),
		)

		It("rejects a newer version", func() {
			_, err := decodeMirror([]byte(`{"version":2,"invoices":[]}`))
			Expect(err).To(MatchError(errMirrorVersion))
		})
	})
})
