package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"trackgen/api/internal/track"
)

const maxBodyBytes = 1 << 20

// TrackService is the part of track.Service the HTTP layer needs.
type TrackService interface {
	Create(ctx context.Context, in track.CreateInput) (track.Track, error)
	List(ctx context.Context) ([]track.Track, error)
	Get(ctx context.Context, id string) (track.Track, error)
	Assess(ctx context.Context, in track.AssessInput) (track.AssessmentResult, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handle struct {
	svc        TrackService
	health     Pinger
	privateKey string
	timeout    time.Duration
	log        *zap.Logger
}

func New(svc TrackService, health Pinger, privateKey string, timeout time.Duration, log *zap.Logger) *Handle {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handle{
		svc:        svc,
		health:     health,
		privateKey: privateKey,
		timeout:    timeout,
		log:        log.Named("http"),
	}
}

type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, track.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, track.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, track.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as {"message": ...}. Server-side failures are reported with
// the generic message so model and store details stay in the logs.
func (h *Handle) fail(w http.ResponseWriter, r *http.Request, err error, generic string) {
	code := statusFor(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError {
		msg = generic
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		h.log.Info("request rejected", zap.String("path", r.URL.Path), zap.Int("status", code), zap.Error(err))
	}
	writeJSON(w, code, errorBody{Message: msg})
}

// requestContext bounds model-backed requests. Clients may override the
// default with an X-Request-Timeout header or a timeoutSec query parameter.
func (h *Handle) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	deadline := h.timeout
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	return context.WithTimeout(r.Context(), deadline)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", track.ErrBadRequest, err)
	}
	return nil
}
