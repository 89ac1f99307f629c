package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Data URIs", func() {
	Describe("EncodeDataURI", func() {
		It("prefixes the MIME type", func() {
			Expect(EncodeDataURI("application/pdf", []byte("hi"))).To(Equal("data:application/pdf;base64,aGk="))
		})

		It("falls back to octet-stream", func() {
			Expect(EncodeDataURI("", []byte("hi"))).To(Equal("data:application/octet-stream;base64,aGk="))
		})
	})

	Describe("DecodeDataURI", func() {
		It("reads back what EncodeDataURI wrote", func() {
			doc, err := DecodeDataURI(EncodeDataURI("image/png", []byte{0x89, 'P', 'N', 'G'}))
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.MIMEType).To(Equal("image/png"))
			Expect(doc.Data).To(Equal([]byte{0x89, 'P', 'N', 'G'}))
		})

		It("drops parameters and normalizes case", func() {
			doc, err := DecodeDataURI("data:Text/Plain;charset=utf-8;base64,aGk=")
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.MIMEType).To(Equal("text/plain"))
			Expect(string(doc.Data)).To(Equal("hi"))
		})

		It("defaults the MIME type to text/plain", func() {
			doc, err := DecodeDataURI("data:;base64,aGk=")
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.MIMEType).To(Equal("text/plain"))
		})

		DescribeTable("rejects invalid input",
			func(uri string) {
				_, err := DecodeDataURI(uri)
				Expect(err).To(MatchError(ErrInvalidDataURI))
			},
			Entry("no scheme", "application/pdf;base64,aGk="),
			Entry("no payload", "data:application/pdf;base64"),
			Entry("not base64", "data:text/plain,hi"),
			Entry("bad base64", "data:text/plain;base64,!!!"),
		)
	})

	DescribeTable("IsDocumentType",
		func(mimeType string, want bool) {
			Expect(IsDocumentType(mimeType)).To(Equal(want))
		},
		Entry("pdf", "application/pdf", true),
		Entry("png", "image/png", true),
		Entry("mixed case jpeg", " Image/JPEG ", true),
		Entry("html", "text/html", false),
		Entry("svg", "image/svg+xml", false),
		Entry("xml", "text/xml", false),
		Entry("octet stream", "application/octet-stream", false),
		Entry("empty", "", false),
	)
})
