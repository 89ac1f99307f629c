package invoice

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("validateDraft", func() {
	var (
		draft Draft
		err   error
	)

	BeforeEach(func() {
		draft = validDraft()
	})

	JustBeforeEach(func() {
		err = validateDraft(newValidator(), draft)
	})

	fields := func() map[string]string {
		var verr *ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())
		return verr.Fields
	}

	When("the draft is complete", func() {
		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("there are no line items", func() {
		BeforeEach(func() {
			draft.LineItems = nil
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("the text fields are blank", func() {
		BeforeEach(func() {
			draft.Vendor = ""
			draft.InvoiceNumber = ""
			draft.InvoiceDate = ""
		})

		It("reports each of them", func() {
			Expect(fields()).To(Equal(map[string]string{
				"vendor":        "required",
				"invoiceNumber": "required",
				"invoiceDate":   "required",
			}))
		})

		It("lists the fields in the message", func() {
			Expect(err.Error()).To(Equal("invalid invoice: invoiceDate: required, invoiceNumber: required, vendor: required"))
		})
	})

	When("a line item has negative numbers", func() {
		BeforeEach(func() {
			draft.LineItems[0].Quantity = -1
			draft.LineItems[0].UnitPrice = -2
		})

		It("reports them by path", func() {
			Expect(fields()).To(Equal(map[string]string{
				"lineItems[0].quantity":  "min",
				"lineItems[0].unitPrice": "min",
			}))
		})
	})

	When("the document is an HTML page", func() {
		BeforeEach(func() {
			draft.PDFDataURI = "data:text/html;base64,PHNjcmlwdD5hbGVydCgxKTwvc2NyaXB0Pg=="
		})

		It("reports the document field", func() {
			Expect(fields()).To(Equal(map[string]string{"pdfDataUri": "document_uri"}))
		})
	})

	When("the document is not a data URI", func() {
		BeforeEach(func() {
			draft.PDFDataURI = "javascript:alert(1)"
		})

		It("reports the document field", func() {
			Expect(fields()).To(HaveKeyWithValue("pdfDataUri", "document_uri"))
		})
	})

	When("the document is an image", func() {
		BeforeEach(func() {
			draft.PDFDataURI = "data:image/png;base64,iVBORw=="
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("the document fields are empty", func() {
		BeforeEach(func() {
			draft.PDFFileName = ""
			draft.PDFDataURI = ""
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
