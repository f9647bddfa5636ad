package models

import "encoding/json"

// BulkRequest is the POST /send-bulk payload. Recipients, pauseMs and
// maxRetries keep their raw decoded form so validation can apply the
// contract's lenient fallback rules instead of failing the whole decode on
// an unexpected type.
type BulkRequest struct {
	APIURL     string          `json:"apiUrl"`
	AuthHeader string          `json:"authHeader"`
	Base       map[string]any  `json:"base"`
	Recipients json.RawMessage `json:"recipients"`
	PauseMs    any             `json:"pauseMs"`
	MaxRetries any             `json:"maxRetries"`
}

// Recipient is one entry of the bulk request's recipient list.
type Recipient struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// RecipientResult reports the outcome for a single recipient. Index is the
// recipient's 1-based position in the input list.
type RecipientResult struct {
	Index  int        `json:"index"`
	Name   string     `json:"name"`
	Phone  string     `json:"phone"`
	OK     bool       `json:"ok"`
	Status int        `json:"status"`
	Body   ParsedBody `json:"body"`
}

// BulkSummary aggregates the per-recipient outcomes of one dispatch.
type BulkSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// BulkReport is the /send-bulk response body.
type BulkReport struct {
	Summary BulkSummary       `json:"summary"`
	Results []RecipientResult `json:"results"`
}
