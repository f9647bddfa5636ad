package dispatch

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/bulk-relay/internal/models"
	"github.com/example/bulk-relay/internal/upload"
)

// Sender issues one downstream call. Implementations return every completed
// HTTP exchange as a Result and only transport failures as errors.
type Sender interface {
	Post(ctx context.Context, target string, fields map[string]any, authHeader string) (upload.Result, error)
}

// SendOutcome is the result of the bounded-retry send for one recipient.
// Attempt is the 0-based index of the attempt that succeeded; it carries no
// meaning when OK is false and is never serialized.
type SendOutcome struct {
	OK      bool
	Attempt int
	Status  int
	Body    models.ParsedBody
}

// Dependencies collects the runtime collaborators required by the engine.
type Dependencies struct {
	Sender Sender
	Logger zerolog.Logger
	Now    func() time.Time
}

// Engine turns one prepared batch into sequential downstream calls with
// bounded retries and fixed pacing. It holds no per-batch state and is safe
// for concurrent Run calls.
type Engine struct {
	sender Sender
	logger zerolog.Logger
	now    func() time.Time
}

// NewEngine constructs a dispatch engine using the supplied collaborators.
func NewEngine(deps Dependencies) (*Engine, error) {
	if deps.Sender == nil {
		return nil, errors.New("dispatch: sender dependency is required")
	}

	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	logger = logger.With().Str("component", "dispatch_engine").Logger()

	nowFunc := deps.Now
	if nowFunc == nil {
		nowFunc = time.Now
	}

	return &Engine{sender: deps.Sender, logger: logger, now: nowFunc}, nil
}

// Run processes the batch's recipients in input order, strictly
// sequentially, and aggregates their outcomes. One recipient's failure
// never stops the rest. The pacing wait applies after every recipient,
// including missing-phone rows and the final one.
func (e *Engine) Run(ctx context.Context, batch *Batch) *models.BulkReport {
	if batch == nil {
		return &models.BulkReport{Results: []models.RecipientResult{}}
	}

	report := &models.BulkReport{
		Summary: models.BulkSummary{Total: len(batch.Recipients)},
		Results: make([]models.RecipientResult, 0, len(batch.Recipients)),
	}

	runLog := e.logger.With().Str("dispatch_id", batch.ID).Logger()
	start := e.now()
	runLog.Info().
		Int("recipients", len(batch.Recipients)).
		Str("url", batch.Config.APIURL).
		Int("retries", batch.Config.Retries).
		Dur("pause", batch.Config.Pause).
		Msg("bulk dispatch started")

	for i, recipient := range batch.Recipients {
		result := models.RecipientResult{
			Index: i + 1,
			Name:  recipient.Name,
			Phone: recipient.Phone,
		}

		if strings.TrimSpace(recipient.Phone) == "" {
			result.Status = http.StatusBadRequest
			result.Body = models.ErrorBody("Missing phone")
			report.Summary.Failed++
			runLog.Warn().Int("index", result.Index).Msg("recipient skipped: missing phone")
		} else {
			outcome := e.Send(ctx, batch.Config, buildPayload(batch.Base, recipient))
			result.OK = outcome.OK
			result.Status = outcome.Status
			result.Body = outcome.Body
			if outcome.OK {
				report.Summary.Success++
				runLog.Info().
					Int("index", result.Index).
					Int("attempt", outcome.Attempt).
					Int("status", outcome.Status).
					Msg("recipient dispatched")
			} else {
				report.Summary.Failed++
				runLog.Warn().
					Int("index", result.Index).
					Int("status", outcome.Status).
					Msg("recipient failed after retries")
			}
		}

		report.Results = append(report.Results, result)

		// Paces the downstream after every recipient, whether or not a call
		// was made.
		e.wait(ctx, batch.Config.Pause)
	}

	runLog.Info().
		Int("success", report.Summary.Success).
		Int("failed", report.Summary.Failed).
		Dur("duration", e.now().Sub(start)).
		Msg("bulk dispatch finished")

	return report
}

// Send performs the bounded-retry send for one payload: the first attempt
// plus up to cfg.Retries more, waiting cfg.Pause between attempts. A
// transport failure becomes a synthetic status-0 result and is retried like
// any non-2xx response; it never propagates.
func (e *Engine) Send(ctx context.Context, cfg Config, fields map[string]any) SendOutcome {
	attempt := 0
	var last upload.Result

	for {
		result, err := e.sender.Post(ctx, cfg.APIURL, fields, cfg.AuthHeader)
		switch {
		case err != nil:
			last = upload.Result{Status: 0, Body: models.ErrorBody(err.Error())}
			e.logger.Warn().Int("attempt", attempt).Err(err).Msg("upload attempt failed")
		case result.Status >= 200 && result.Status < 300:
			return SendOutcome{OK: true, Attempt: attempt, Status: result.Status, Body: result.Body}
		default:
			last = result
			e.logger.Warn().Int("attempt", attempt).Int("status", result.Status).Msg("upload attempt rejected")
		}

		if attempt >= cfg.Retries {
			break
		}
		e.wait(ctx, cfg.Pause)
		attempt++
	}

	return SendOutcome{OK: false, Status: last.Status, Body: last.Body}
}

// buildPayload merges the shared base fields with the per-recipient fields
// into a fresh map; the base map is never mutated here.
func buildPayload(base map[string]any, recipient models.Recipient) map[string]any {
	payload := make(map[string]any, len(base)+2)
	for k, v := range base {
		payload[k] = v
	}
	payload["receipt_phone"] = recipient.Phone
	if strings.TrimSpace(recipient.Name) != "" {
		payload["receipt_name"] = recipient.Name
	}
	return payload
}

func (e *Engine) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
