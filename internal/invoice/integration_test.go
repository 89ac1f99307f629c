package invoice_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/parsewise/internal/invoice"
	"github.com/zombor/parsewise/internal/scanning"
)

// fakeScanner returns canned data for every document
type fakeScanner struct {
	data *scanning.InvoiceData
}

func (f *fakeScanner) ExtractInvoice(ctx context.Context, doc scanning.Document) (*scanning.InvoiceData, error) {
	return f.data, nil
}

func (f *fakeScanner) SuggestImprovements(ctx context.Context, in scanning.SuggestionInput) (*scanning.Suggestions, error) {
	return &scanning.Suggestions{}, nil
}

func (f *fakeScanner) Close() error {
	return nil
}

var _ = Describe("Integration", func() {
	var (
		dbPath   string
		storage  *invoice.BoltStorage
		store    *invoice.Store
		scanners *scanning.Registry
		server   *invoice.Server
		ghServer *ghttp.Server
	)

	start := func() {
		var err error
		storage, err = invoice.NewBoltStorage(dbPath)
		Expect(err).NotTo(HaveOccurred())

		store = invoice.NewStore(storage)
		store.Load()
		server = invoice.NewServer(invoice.NewService(store, scanners))
	}

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		scanners = scanning.NewRegistry("ollama")
		scanners.Register("ollama", &fakeScanner{
			data: &scanning.InvoiceData{
				Vendor:        "Test Integration Vendor",
				InvoiceNumber: "TI-42",
				InvoiceDate:   "2024-03-20",
				LineItems: []scanning.LineItem{
					{Description: "Consulting", Quantity: 1, UnitPrice: 42.5, Amount: 42.5},
				},
				Total: 42.5,
			},
		})
		start()
		ghServer = ghttp.NewServer()
	})

	AfterEach(func() {
		ghServer.Close()
		store.Close()
	})

	request := func(method, path string, body io.Reader, contentType string) *http.Response {
		ghServer.AppendHandlers(server.ServeHTTP)
		req, err := http.NewRequest(method, ghServer.URL()+path, body)
		Expect(err).NotTo(HaveOccurred())
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, v any) {
		defer resp.Body.Close()
		Expect(json.NewDecoder(resp.Body).Decode(v)).To(Succeed())
	}

	It("should extract an invoice, save it and keep it across restarts", func() {
		// --- Step 1: Extract ---
		fileContent := []byte("%PDF-1.4 ... fake pdf content ...")
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", "invoice.pdf")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(fileContent)
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		resp := request("POST", "/api/invoices/extract", body, writer.FormDataContentType())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var extraction invoice.Extraction
		decode(resp, &extraction)
		Expect(extraction.Model).To(Equal("ollama"))
		Expect(extraction.Draft.Vendor).To(Equal("Test Integration Vendor"))

		// --- Step 2: Save the reviewed draft ---
		draft := extraction.Draft
		draft.Vendor = "Reviewed Vendor"
		payload, err := json.Marshal(draft)
		Expect(err).NotTo(HaveOccurred())

		resp = request("POST", "/api/invoices", bytes.NewReader(payload), "application/json")
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		var saved invoice.Invoice
		decode(resp, &saved)
		Expect(saved.ID).NotTo(BeEmpty())
		Expect(saved.Vendor).To(Equal("Reviewed Vendor"))

		// --- Step 3: The original document is served back ---
		resp = request("GET", "/api/invoices/"+saved.ID+"/document", nil, "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		doc, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		Expect(err).NotTo(HaveOccurred())
		Expect(doc).To(Equal(fileContent))

		// --- Step 4: Restart on the same database ---
		Expect(store.Close()).To(Succeed())
		start()

		resp = request("GET", "/api/invoices", nil, "")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var invoices []invoice.Invoice
		decode(resp, &invoices)
		Expect(invoices).To(HaveLen(1))
		Expect(invoices[0]).To(Equal(saved))

		// --- Step 5: Delete, twice ---
		for i := 0; i < 2; i++ {
			resp = request("DELETE", "/api/invoices/"+saved.ID, nil, "")
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			resp.Body.Close()
		}

		Expect(store.Close()).To(Succeed())
		start()
		Expect(store.List()).To(BeEmpty())
	})
})
