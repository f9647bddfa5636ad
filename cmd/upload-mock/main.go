package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/bulk-relay/internal/logger"
)

// Scenario enumerates the mock behaviours of the upload endpoint.
type Scenario string

const (
	ScenarioSuccess   Scenario = "success"
	ScenarioFailFirst Scenario = "fail-first"
	ScenarioPermanent Scenario = "permanent"
	ScenarioFlaky     Scenario = "flaky"
)

type mockServer struct {
	logger     zerolog.Logger
	scenario   Scenario
	failCount  int
	failStatus int
	auth       string

	mu   sync.Mutex
	seen map[string]int
	rnd  *rand.Rand
}

func (s *mockServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *mockServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form body"})
		return
	}
	if s.auth != "" && r.Header.Get("Authorization") != s.auth {
		s.logger.Warn().Str("got", r.Header.Get("Authorization")).Msg("rejected authorization")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	phone := strings.TrimSpace(r.PostFormValue("receipt_phone"))
	if phone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "receipt_phone is required"})
		return
	}

	attempt := s.bump(phone)
	status, body := s.respond(phone, attempt)

	s.logger.Info().
		Str("phone", phone).
		Str("name", r.PostFormValue("receipt_name")).
		Str("scenario", string(s.scenario)).
		Int("attempt", attempt).
		Int("status", status).
		Msg("upload received")

	writeJSON(w, status, body)
}

// bump counts calls per phone so fail-first can recover per recipient.
func (s *mockServer) bump(phone string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[phone]++
	return s.seen[phone]
}

func (s *mockServer) respond(phone string, attempt int) (int, any) {
	switch s.scenario {
	case ScenarioFailFirst:
		if attempt <= s.failCount {
			return s.failStatus, map[string]string{"error": "temporarily unavailable"}
		}
	case ScenarioPermanent:
		return s.failStatus, map[string]string{"error": "upload rejected"}
	case ScenarioFlaky:
		s.mu.Lock()
		flip := s.rnd.Intn(2) == 0
		s.mu.Unlock()
		if flip {
			return s.failStatus, map[string]string{"error": "temporarily unavailable"}
		}
	}
	return http.StatusOK, map[string]string{
		"id":     "upload-" + uuid.NewString(),
		"status": "accepted",
		"phone":  phone,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func main() {
	port := flag.Int("port", 8081, "Port to listen on")
	scenario := flag.String("scenario", "success", "Response scenario: success, fail-first, permanent, flaky")
	failCount := flag.Int("fail-count", 2, "Failures per phone before success (fail-first scenario)")
	failStatus := flag.Int("fail-status", 503, "HTTP status used for failures")
	auth := flag.String("auth", "", "Require this exact Authorization header when set")
	flag.Parse()

	log, err := logger.New("development", "debug")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log = log.With().Str("service", "upload-mock").Logger()

	s := &mockServer{
		logger:     log,
		scenario:   Scenario(strings.ToLower(strings.TrimSpace(*scenario))),
		failCount:  *failCount,
		failStatus: *failStatus,
		auth:       *auth,
		seen:       make(map[string]int),
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- flaky scenario only needs cheap randomness.
	}
	switch s.scenario {
	case ScenarioSuccess, ScenarioFailFirst, ScenarioPermanent, ScenarioFlaky:
	default:
		log.Fatal().Str("scenario", string(s.scenario)).Msg("unknown scenario")
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Post("/upload", s.handleUpload)

	addr := fmt.Sprintf(":%d", *port)
	log.Info().
		Str("addr", addr).
		Str("scenario", string(s.scenario)).
		Msg("upload mock listening")

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
