package scanning

import (
	"fmt"
	"strings"
)

// invoiceScanPrompt is the shared prompt used by all LLM providers for extracting invoices
const invoiceScanPrompt = `You are an expert in extracting data from invoices. Carefully read all text in the attached invoice pages and extract the following information:

1. **Vendor**: The name of the company that issued the invoice, usually in the header or next to the logo.

2. **Invoice Number**: The identifier of the invoice, often labeled "Invoice #", "Invoice No.", "Number" or "Reference".

3. **Invoice Date**: The date the invoice was issued. Convert it to ISO 8601 format (YYYY-MM-DD).

4. **Line Items**: Every billed row with its description, quantity, unit price and line amount. Use 1 as quantity if none is printed.

5. **Total**: The final total or amount due, including taxes.

Return ONLY valid JSON in this exact format:
{
  "vendor": "Vendor Name",
  "invoiceNumber": "INV-0001",
  "invoiceDate": "YYYY-MM-DD",
  "lineItems": [
    {"description": "Item", "quantity": 1, "unitPrice": 0.00, "amount": 0.00}
  ],
  "total": 0.00
}

Important:
- All numbers must be numbers (not strings) without currency symbols
- If you cannot find a text field, use an empty string
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// suggestionSystemPrompt frames the review task
const suggestionSystemPrompt = `You are an expert in invoice data validation and improvement. You receive data extracted from an invoice, cross-reference it with what you know about vendors and invoice conventions, and suggest corrections where something looks wrong.`

// suggestionPrompt renders the review request for in
func suggestionPrompt(in SuggestionInput) string {
	var b strings.Builder
	b.WriteString("Here is the extracted invoice data:\n\n")
	fmt.Fprintf(&b, "Vendor: %s\n", in.Vendor)
	fmt.Fprintf(&b, "Invoice Number: %s\n", in.InvoiceNumber)
	fmt.Fprintf(&b, "Invoice Date: %s\n", in.InvoiceDate)
	b.WriteString("Line Items:\n")
	for _, li := range in.LineItems {
		fmt.Fprintf(&b, "- Description: %s, Amount: %.2f\n", li.Description, li.Amount)
	}
	fmt.Fprintf(&b, "Total Amount: %.2f\n", in.TotalAmount)
	b.WriteString(`
For every field, return your suggested value and a confidence between 0 and 1 that the suggestion is correct.
If no improvement is needed, return the original value with a confidence of 1.
Keep the line items in the same order and return exactly one entry per input line item.

Return ONLY valid JSON in this exact format:
{
  "vendor": {"value": "", "confidence": 1},
  "invoiceNumber": {"value": "", "confidence": 1},
  "invoiceDate": {"value": "YYYY-MM-DD", "confidence": 1},
  "lineItems": [
    {"description": {"value": "", "confidence": 1}, "amount": {"value": 0.00, "confidence": 1}}
  ],
  "totalAmount": {"value": 0.00, "confidence": 1}
}

Do not include any text before or after the JSON and do not use markdown code blocks.`)
	return b.String()
}
