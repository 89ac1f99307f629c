package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// dateFormats are the layouts accepted for the invoice date, ISO first
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"02.01.2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// extractJSONObject strips markdown fences and any prose around the first
// JSON object of an LLM answer
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return "", fmt.Errorf("invalid JSON object in response")
	}

	return text[startIdx : endIdx+1], nil
}

// normalizeDate returns the date as YYYY-MM-DD, or "" when it can't be read
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, format := range dateFormats {
		if d, err := time.Parse(format, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}

// parseInvoiceJSON parses the JSON answer of an extraction call
func parseInvoiceJSON(text string) (*InvoiceData, error) {
	obj, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var data InvoiceData
	if err := json.Unmarshal([]byte(obj), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	data.Vendor = strings.TrimSpace(data.Vendor)
	data.InvoiceNumber = strings.TrimSpace(data.InvoiceNumber)
	data.InvoiceDate = normalizeDate(data.InvoiceDate)
	if data.LineItems == nil {
		data.LineItems = []LineItem{}
	}
	for i := range data.LineItems {
		data.LineItems[i].Description = strings.TrimSpace(data.LineItems[i].Description)
	}

	return &data, nil
}

// rawSuggestions is a suggestion answer as sent by the model. Pointers
// tell a missing field from a zero one.
type rawSuggestions struct {
	Vendor        *SuggestedText `json:"vendor"`
	InvoiceNumber *SuggestedText `json:"invoiceNumber"`
	InvoiceDate   *SuggestedText `json:"invoiceDate"`
	LineItems     []struct {
		Description *SuggestedText   `json:"description"`
		Amount      *SuggestedNumber `json:"amount"`
	} `json:"lineItems"`
	TotalAmount *SuggestedNumber `json:"totalAmount"`
}

func textOr(s *SuggestedText, original string) SuggestedText {
	if s == nil {
		return SuggestedText{Value: original, Confidence: 1}
	}
	return *s
}

func numberOr(s *SuggestedNumber, original float64) SuggestedNumber {
	if s == nil {
		return SuggestedNumber{Value: original, Confidence: 1}
	}
	return *s
}

// parseSuggestionsJSON parses the JSON answer of a suggestion call. The
// result has one line item per input line item; anything the model left
// out keeps the input value with confidence 1.
func parseSuggestionsJSON(text string, in SuggestionInput) (*Suggestions, error) {
	obj, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var raw rawSuggestions
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	s := Suggestions{
		Vendor:        textOr(raw.Vendor, in.Vendor),
		InvoiceNumber: textOr(raw.InvoiceNumber, in.InvoiceNumber),
		InvoiceDate:   textOr(raw.InvoiceDate, in.InvoiceDate),
		LineItems:     make([]SuggestedLineItem, len(in.LineItems)),
		TotalAmount:   numberOr(raw.TotalAmount, in.TotalAmount),
	}
	for i, li := range in.LineItems {
		if i >= len(raw.LineItems) {
			s.LineItems[i] = SuggestedLineItem{
				Description: SuggestedText{Value: li.Description, Confidence: 1},
				Amount:      SuggestedNumber{Value: li.Amount, Confidence: 1},
			}
			continue
		}
		s.LineItems[i] = SuggestedLineItem{
			Description: textOr(raw.LineItems[i].Description, li.Description),
			Amount:      numberOr(raw.LineItems[i].Amount, li.Amount),
		}
	}
	s.normalize()

	return &s, nil
}
