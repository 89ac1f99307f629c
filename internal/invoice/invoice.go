package invoice

// LineItem is a single row of an invoice. Amount is stored as given and is
// not required to equal Quantity * UnitPrice.
type LineItem struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"min=0"`
	UnitPrice   float64 `json:"unitPrice" validate:"min=0"`
	Amount      float64 `json:"amount" validate:"min=0"`
}

// Invoice represents a digitized invoice
type Invoice struct {
	ID            string     `json:"id"`
	PDFFileName   string     `json:"pdfFileName"`
	PDFDataURI    string     `json:"pdfDataUri,omitempty"` // base64 data URI of the source document
	Vendor        string     `json:"vendor"`
	InvoiceNumber string     `json:"invoiceNumber"`
	InvoiceDate   string     `json:"invoiceDate"` // kept as entered, not parsed
	LineItems     []LineItem `json:"lineItems"`
	TotalAmount   float64    `json:"totalAmount"`
	CreatedAt     string     `json:"createdAt"` // ISO-8601, set once by the store
}

// Draft is an invoice that has not been stored yet. It carries everything
// except the ID and creation timestamp.
type Draft struct {
	PDFFileName   string     `json:"pdfFileName"`
	PDFDataURI    string     `json:"pdfDataUri,omitempty" validate:"omitempty,document_uri"`
	Vendor        string     `json:"vendor" validate:"required"`
	InvoiceNumber string     `json:"invoiceNumber" validate:"required"`
	InvoiceDate   string     `json:"invoiceDate" validate:"required"`
	LineItems     []LineItem `json:"lineItems" validate:"dive"`
	TotalAmount   float64    `json:"totalAmount" validate:"min=0"`
}

// Draft returns the editable fields of the invoice.
func (i Invoice) Draft() Draft {
	return Draft{
		PDFFileName:   i.PDFFileName,
		PDFDataURI:    i.PDFDataURI,
		Vendor:        i.Vendor,
		InvoiceNumber: i.InvoiceNumber,
		InvoiceDate:   i.InvoiceDate,
		LineItems:     cloneLineItems(i.LineItems),
		TotalAmount:   i.TotalAmount,
	}
}

// clone returns a copy that shares no slices with i.
func (i Invoice) clone() Invoice {
	i.LineItems = cloneLineItems(i.LineItems)
	return i
}

func cloneLineItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
