package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// invoicePrompt is the shared instruction sent to every vision provider
const invoicePrompt = `Extract the company name and amount charged from this invoice image. Return in JSON format as exactly {"company_name": "...", "amount": "..."}. Do not include any ` + "```json```" + ` tags, just return the exact JSON dictionary.`

// invoiceReply mirrors the model reply; pointers tell a missing key from an empty one
type invoiceReply struct {
	CompanyName *string `json:"company_name"`
	Amount      *string `json:"amount"`
}

// parseInvoiceJSON parses the JSON object returned by a vision model
func parseInvoiceJSON(text string) (*InvoiceData, error) {
	text = strings.TrimSpace(text)

	// Models sometimes wrap the object in a markdown fence anyway
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var reply invoiceReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	if reply.CompanyName == nil {
		return nil, fmt.Errorf("missing company_name in response")
	}
	if reply.Amount == nil {
		return nil, fmt.Errorf("missing amount in response")
	}

	return &InvoiceData{
		CompanyName: *reply.CompanyName,
		Amount:      *reply.Amount,
		Source:      SourceVision,
	}, nil
}
