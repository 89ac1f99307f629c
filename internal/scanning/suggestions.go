package scanning

// SuggestedText is a proposed value for a text field
type SuggestedText struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// SuggestedNumber is a proposed value for a numeric field
type SuggestedNumber struct {
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
}

// SuggestedLineItem holds the proposals for one line item
type SuggestedLineItem struct {
	Description SuggestedText   `json:"description"`
	Amount      SuggestedNumber `json:"amount"`
}

// Suggestions mirrors SuggestionInput with a proposal per field. A
// confidence of 1 means the model recommends no change.
type Suggestions struct {
	Vendor        SuggestedText       `json:"vendor"`
	InvoiceNumber SuggestedText       `json:"invoiceNumber"`
	InvoiceDate   SuggestedText       `json:"invoiceDate"`
	LineItems     []SuggestedLineItem `json:"lineItems"`
	TotalAmount   SuggestedNumber     `json:"totalAmount"`
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

// normalize clamps every confidence into [0,1]
func (s *Suggestions) normalize() {
	s.Vendor.Confidence = clampConfidence(s.Vendor.Confidence)
	s.InvoiceNumber.Confidence = clampConfidence(s.InvoiceNumber.Confidence)
	s.InvoiceDate.Confidence = clampConfidence(s.InvoiceDate.Confidence)
	s.TotalAmount.Confidence = clampConfidence(s.TotalAmount.Confidence)
	for i := range s.LineItems {
		s.LineItems[i].Description.Confidence = clampConfidence(s.LineItems[i].Description.Confidence)
		s.LineItems[i].Amount.Confidence = clampConfidence(s.LineItems[i].Amount.Confidence)
	}
}

// Changes counts the fields for which a change is recommended
func (s *Suggestions) Changes() int {
	n := 0
	for _, c := range []float64{s.Vendor.Confidence, s.InvoiceNumber.Confidence, s.InvoiceDate.Confidence, s.TotalAmount.Confidence} {
		if c < 1 {
			n++
		}
	}
	for _, li := range s.LineItems {
		if li.Description.Confidence < 1 {
			n++
		}
		if li.Amount.Confidence < 1 {
			n++
		}
	}
	return n
}
