package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/example/bulk-relay/internal/models"
	"github.com/example/bulk-relay/internal/util"
)

// Defaults carries the process-wide fallbacks applied while preparing a
// batch.
type Defaults struct {
	APIURL     string
	AuthHeader string
	PauseMs    int
	MaxRetries int
}

// Config is the dispatch configuration derived once per bulk request; it is
// never mutated afterwards. Retries is the number of additional attempts
// after the first.
type Config struct {
	APIURL     string
	AuthHeader string
	Pause      time.Duration
	Retries    int
}

// Batch is a validated, normalized bulk request ready for the engine. The ID
// correlates engine logs and is echoed to the caller.
type Batch struct {
	ID         string
	Config     Config
	Base       map[string]any
	Recipients []models.Recipient
}

var webTruthy = map[string]struct{}{"1": {}, "true": {}, "True": {}}

// PrepareBatch validates the bulk request and resolves its configuration.
// Auth resolution order is transport header, then body field, then process
// default; the API URL falls back from body to default; pauseMs and
// maxRetries use the body value only when it arrived as a number. The base
// web flag is canonicalized in place before dispatch.
func PrepareBatch(req *models.BulkRequest, transportAuth string, defaults Defaults) (*Batch, error) {
	if req == nil {
		return nil, errors.New("dispatch: request is required")
	}

	auth := util.FirstNonBlank(transportAuth, req.AuthHeader, defaults.AuthHeader)
	if auth == "" {
		return nil, ErrMissingAuth
	}

	recipients, err := decodeRecipients(req.Recipients)
	if err != nil {
		return nil, err
	}

	base, err := normalizeBase(req.Base)
	if err != nil {
		return nil, err
	}

	cfg := Config{
		APIURL:     util.FirstNonBlank(req.APIURL, defaults.APIURL),
		AuthHeader: auth,
		Pause:      time.Duration(intFromNumber(req.PauseMs, defaults.PauseMs)) * time.Millisecond,
		Retries:    intFromNumber(req.MaxRetries, defaults.MaxRetries),
	}
	if cfg.Pause < 0 {
		cfg.Pause = 0
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	return &Batch{
		ID:         uuid.NewString(),
		Config:     cfg,
		Base:       base,
		Recipients: recipients,
	}, nil
}

func decodeRecipients(raw json.RawMessage) ([]models.Recipient, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidRecipients
	}

	var recipients []models.Recipient
	if err := json.Unmarshal(raw, &recipients); err != nil {
		return nil, ErrInvalidRecipients
	}
	if len(recipients) == 0 {
		return nil, ErrInvalidRecipients
	}
	return recipients, nil
}

// normalizeBase canonicalizes the web flag and verifies every remaining
// value is scalar. Explicit nulls survive; the form encoder drops them.
func normalizeBase(base map[string]any) (map[string]any, error) {
	if base == nil {
		return nil, nil
	}

	if value, ok := base["is_web"]; ok {
		base["is_web"] = canonicalWebFlag(value)
	}

	for key, value := range base {
		if value == nil {
			continue
		}
		if !util.IsScalar(value) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBase, key)
		}
	}
	return base, nil
}

// canonicalWebFlag maps the fixed truthy set ("1", "true", "True", numeric
// 1, boolean true) to "1" and any other present value to "0".
func canonicalWebFlag(value any) string {
	switch v := value.(type) {
	case string:
		if _, ok := webTruthy[v]; ok {
			return "1"
		}
	case bool:
		if v {
			return "1"
		}
	case float64:
		if v == 1 {
			return "1"
		}
	case int:
		if v == 1 {
			return "1"
		}
	}
	return "0"
}

// intFromNumber uses the request value only when it decoded as a finite
// number; anything else falls back to the default. Fractions truncate
// toward zero.
func intFromNumber(value any, def int) int {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return def
		}
		return int(v)
	case int:
		return v
	}
	return def
}
