package dispatch

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/example/bulk-relay/internal/models"
)

func testDefaults() Defaults {
	return Defaults{
		APIURL:     "http://default.example/upload",
		AuthHeader: "Bearer default",
		PauseMs:    500,
		MaxRetries: 2,
	}
}

func validRecipients() json.RawMessage {
	return json.RawMessage(`[{"name": "Ada", "phone": "+14155552671"}]`)
}

func TestPrepareBatchAuthPrecedence(t *testing.T) {
	cases := []struct {
		name      string
		transport string
		body      string
		def       string
		want      string
	}{
		{"transport wins", "Bearer transport", "Bearer body", "Bearer default", "Bearer transport"},
		{"transport trimmed", "  Bearer transport  ", "", "", "Bearer transport"},
		{"body when transport blank", "   ", "Bearer body", "Bearer default", "Bearer body"},
		{"default when both blank", "", "  ", "Bearer default", "Bearer default"},
	}

	for _, tc := range cases {
		req := &models.BulkRequest{AuthHeader: tc.body, Recipients: validRecipients()}
		defaults := testDefaults()
		defaults.AuthHeader = tc.def

		batch, err := PrepareBatch(req, tc.transport, defaults)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if batch.Config.AuthHeader != tc.want {
			t.Fatalf("%s: expected auth %q, got %q", tc.name, tc.want, batch.Config.AuthHeader)
		}
	}
}

func TestPrepareBatchMissingAuth(t *testing.T) {
	req := &models.BulkRequest{AuthHeader: "   ", Recipients: validRecipients()}
	defaults := testDefaults()
	defaults.AuthHeader = ""

	_, err := PrepareBatch(req, "", defaults)
	if err != ErrMissingAuth {
		t.Fatalf("expected ErrMissingAuth, got %v", err)
	}
	if !IsClientError(err) {
		t.Fatalf("expected missing auth to classify as client error")
	}
}

func TestPrepareBatchInvalidRecipients(t *testing.T) {
	cases := []struct {
		name string
		raw  json.RawMessage
	}{
		{"absent", nil},
		{"null", json.RawMessage(`null`)},
		{"not an array", json.RawMessage(`{"phone": "+1"}`)},
		{"empty array", json.RawMessage(`[]`)},
		{"wrong element shape", json.RawMessage(`["+14155552671"]`)},
		{"wrong field type", json.RawMessage(`[{"phone": 123}]`)},
	}

	for _, tc := range cases {
		req := &models.BulkRequest{Recipients: tc.raw}
		if _, err := PrepareBatch(req, "Bearer t", testDefaults()); err != ErrInvalidRecipients {
			t.Fatalf("%s: expected ErrInvalidRecipients, got %v", tc.name, err)
		}
	}
}

func TestPrepareBatchRecipientsDecoded(t *testing.T) {
	req := &models.BulkRequest{
		Recipients: json.RawMessage(`[{"name": "Ada", "phone": "+1"}, {"phone": "+2"}]`),
	}
	batch, err := PrepareBatch(req, "Bearer t", testDefaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Recipients) != 2 {
		t.Fatalf("expected 2 recipients, got %d", len(batch.Recipients))
	}
	if batch.Recipients[0].Name != "Ada" || batch.Recipients[0].Phone != "+1" {
		t.Fatalf("unexpected first recipient %+v", batch.Recipients[0])
	}
	if batch.Recipients[1].Name != "" {
		t.Fatalf("expected absent name decoded as empty, got %q", batch.Recipients[1].Name)
	}
}

func TestPrepareBatchPauseAndRetries(t *testing.T) {
	cases := []struct {
		name        string
		pause       any
		retries     any
		wantPause   time.Duration
		wantRetries int
	}{
		{"absent falls back", nil, nil, 500 * time.Millisecond, 2},
		{"numbers used", float64(250), float64(5), 250 * time.Millisecond, 5},
		{"zero respected", float64(0), float64(0), 0, 0},
		{"strings fall back", "250", "5", 500 * time.Millisecond, 2},
		{"bools fall back", true, false, 500 * time.Millisecond, 2},
		{"negatives clamp", float64(-100), float64(-3), 0, 0},
		{"fractions truncate", float64(10.9), float64(2.9), 10 * time.Millisecond, 2},
	}

	for _, tc := range cases {
		req := &models.BulkRequest{
			Recipients: validRecipients(),
			PauseMs:    tc.pause,
			MaxRetries: tc.retries,
		}
		batch, err := PrepareBatch(req, "Bearer t", testDefaults())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if batch.Config.Pause != tc.wantPause {
			t.Fatalf("%s: expected pause %v, got %v", tc.name, tc.wantPause, batch.Config.Pause)
		}
		if batch.Config.Retries != tc.wantRetries {
			t.Fatalf("%s: expected retries %d, got %d", tc.name, tc.wantRetries, batch.Config.Retries)
		}
	}
}

func TestPrepareBatchWebFlag(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"string one", "1", "1"},
		{"string true", "true", "1"},
		{"string True", "True", "1"},
		{"numeric one", float64(1), "1"},
		{"boolean true", true, "1"},
		{"string zero", "0", "0"},
		{"string false", "false", "0"},
		{"string TRUE not in set", "TRUE", "0"},
		{"numeric two", float64(2), "0"},
		{"explicit null", nil, "0"},
	}

	for _, tc := range cases {
		req := &models.BulkRequest{
			Recipients: validRecipients(),
			Base:       map[string]any{"is_web": tc.value},
		}
		batch, err := PrepareBatch(req, "Bearer t", testDefaults())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got := batch.Base["is_web"]; got != tc.want {
			t.Fatalf("%s: expected is_web %q, got %v", tc.name, tc.want, got)
		}
	}
}

func TestPrepareBatchWebFlagAbsentStaysAbsent(t *testing.T) {
	req := &models.BulkRequest{
		Recipients: validRecipients(),
		Base:       map[string]any{"song_id": float64(7)},
	}
	batch, err := PrepareBatch(req, "Bearer t", testDefaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := batch.Base["is_web"]; ok {
		t.Fatalf("expected absent is_web to stay absent, got %v", batch.Base)
	}
}

func TestPrepareBatchRejectsNonScalarBase(t *testing.T) {
	req := &models.BulkRequest{
		Recipients: validRecipients(),
		Base:       map[string]any{"meta": map[string]any{"nested": true}},
	}
	_, err := PrepareBatch(req, "Bearer t", testDefaults())
	if !IsClientError(err) {
		t.Fatalf("expected client error for non-scalar base value, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), `"meta"`) {
		t.Fatalf("expected error to name the offending key, got %v", err)
	}
}

func TestPrepareBatchKeepsNullBaseValues(t *testing.T) {
	req := &models.BulkRequest{
		Recipients: validRecipients(),
		Base:       map[string]any{"image_url": nil},
	}
	batch, err := PrepareBatch(req, "Bearer t", testDefaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	value, present := batch.Base["image_url"]
	if !present || value != nil {
		t.Fatalf("expected explicit null preserved, got %v", batch.Base)
	}
}

func TestPrepareBatchAPIURL(t *testing.T) {
	req := &models.BulkRequest{APIURL: "  http://override.example/send  ", Recipients: validRecipients()}
	batch, err := PrepareBatch(req, "Bearer t", testDefaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Config.APIURL != "http://override.example/send" {
		t.Fatalf("expected trimmed override, got %q", batch.Config.APIURL)
	}

	req = &models.BulkRequest{APIURL: "   ", Recipients: validRecipients()}
	batch, err = PrepareBatch(req, "Bearer t", testDefaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Config.APIURL != "http://default.example/upload" {
		t.Fatalf("expected default url, got %q", batch.Config.APIURL)
	}
}

func TestPrepareBatchAssignsID(t *testing.T) {
	req := &models.BulkRequest{Recipients: validRecipients()}
	first, err := PrepareBatch(req, "Bearer t", testDefaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := PrepareBatch(req, "Bearer t", testDefaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID == "" || second.ID == "" {
		t.Fatalf("expected non-empty batch ids")
	}
	if first.ID == second.ID {
		t.Fatalf("expected unique batch ids, got %q twice", first.ID)
	}
}
