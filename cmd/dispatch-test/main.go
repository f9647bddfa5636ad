package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/bulk-relay/internal/dispatch"
	"github.com/example/bulk-relay/internal/models"
	"github.com/example/bulk-relay/internal/upload"
)

// Smoke check for the dispatch pipeline against a live upload endpoint,
// typically the upload-mock binary.
func main() {
	url := flag.String("url", "http://localhost:8081/upload", "Upload endpoint to dispatch against")
	auth := flag.String("auth", "Bearer dispatch-test", "Authorization header value")
	phones := flag.String("phones", "+15550100001,+15550100002", "Comma separated recipient phones")
	message := flag.String("message", "Dispatch harness check", "Message forwarded with every upload")
	pauseMs := flag.Int("pause-ms", 200, "Pause between recipients in milliseconds")
	retries := flag.Int("retries", 2, "Extra attempts per recipient after the first")
	timeout := flag.Duration("timeout", 10*time.Second, "Per-call HTTP timeout")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	var recipients []models.Recipient
	for i, phone := range strings.Split(*phones, ",") {
		phone = strings.TrimSpace(phone)
		if phone == "" {
			continue
		}
		recipients = append(recipients, models.Recipient{
			Name:  fmt.Sprintf("Recipient %d", i+1),
			Phone: phone,
		})
	}
	if len(recipients) == 0 {
		logger.Fatal().Msg("at least one phone is required")
	}

	rawRecipients, err := json.Marshal(recipients)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to encode recipients")
	}

	request := &models.BulkRequest{
		Base: map[string]any{
			"message": *message,
			"is_web":  true,
		},
		Recipients: rawRecipients,
	}

	batch, err := dispatch.PrepareBatch(request, *auth, dispatch.Defaults{
		APIURL:     *url,
		PauseMs:    *pauseMs,
		MaxRetries: *retries,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare batch")
	}

	client := upload.NewClient(*timeout, logger)
	engine, err := dispatch.NewEngine(dispatch.Dependencies{
		Sender: client,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise dispatch engine")
	}

	report := engine.Run(context.Background(), batch)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to encode report")
	}
	fmt.Println(string(out))

	if report.Summary.Failed > 0 {
		os.Exit(1)
	}
}
