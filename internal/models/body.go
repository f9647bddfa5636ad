package models

import "encoding/json"

// ParsedBody holds a downstream response body: the decoded JSON value when
// the body parsed as JSON, otherwise the raw text. It marshals as the JSON
// value itself or as {"raw": <text>} so consumers can discriminate without
// re-parsing.
type ParsedBody struct {
	JSON json.RawMessage
	Raw  string
}

// ParseBody interprets a response body, keeping valid JSON as-is and
// falling back to the raw text form.
func ParseBody(body string) ParsedBody {
	if json.Valid([]byte(body)) {
		return ParsedBody{JSON: json.RawMessage(body)}
	}
	return ParsedBody{Raw: body}
}

// ErrorBody builds the {"error": <message>} JSON body used for synthetic
// failure outcomes.
func ErrorBody(message string) ParsedBody {
	data, _ := json.Marshal(map[string]string{"error": message})
	return ParsedBody{JSON: data}
}

// IsJSON reports whether the body carried valid JSON.
func (b ParsedBody) IsJSON() bool { return len(b.JSON) > 0 }

// MarshalJSON emits the decoded JSON value directly, or wraps the raw text.
func (b ParsedBody) MarshalJSON() ([]byte, error) {
	if b.IsJSON() {
		return b.JSON, nil
	}
	return json.Marshal(struct {
		Raw string `json:"raw"`
	}{Raw: b.Raw})
}

// UnmarshalJSON stores the incoming value verbatim as the JSON variant.
func (b *ParsedBody) UnmarshalJSON(data []byte) error {
	b.JSON = append(b.JSON[:0], data...)
	b.Raw = ""
	return nil
}
