package handle

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"trackgen/api/internal/track"
)

const generationFailed = "Track generation failed."

type createTrackRequest struct {
	TrackName      string          `json:"track_name"`
	Description    string          `json:"description"`
	Difficulty     string          `json:"difficulty"`
	Timeframe      string          `json:"timeframe"`
	NumCheckpoints json.RawMessage `json:"num_checkpoints"`
	NumFlashcards  json.RawMessage `json:"num_flashcards"`
	PrivateKey     string          `json:"private_key"`
}

func (req createTrackRequest) input() (track.CreateInput, error) {
	in := track.CreateInput{
		Name:        req.TrackName,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Timeframe:   req.Timeframe,
	}
	n, ok := intField(req.NumCheckpoints)
	if !ok {
		return in, fmt.Errorf("%w: num_checkpoints must be a positive integer", track.ErrBadRequest)
	}
	in.Checkpoints = n
	if len(req.NumFlashcards) > 0 && string(req.NumFlashcards) != "null" {
		m, ok := intField(req.NumFlashcards)
		if !ok {
			return in, fmt.Errorf("%w: num_flashcards must be a positive integer", track.ErrBadRequest)
		}
		in.Flashcards = &m
	}
	return in, nil
}

func (h *Handle) authorized(key string) bool {
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.privateKey)) == 1
}

// CreateTrack handles POST /create_track.
func (h *Handle) CreateTrack(w http.ResponseWriter, r *http.Request) {
	var req createTrackRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err, generationFailed)
		return
	}
	if !h.authorized(req.PrivateKey) {
		h.fail(w, r, fmt.Errorf("%w: invalid private key", track.ErrUnauthorized), generationFailed)
		return
	}
	in, err := req.input()
	if err != nil {
		h.fail(w, r, err, generationFailed)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	t, err := h.svc.Create(ctx, in)
	if err != nil {
		h.fail(w, r, err, generationFailed)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// GetUserTracks handles GET /get_user_tracks.
func (h *Handle) GetUserTracks(w http.ResponseWriter, r *http.Request) {
	ts, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch tracks.")
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

// GetTrack handles GET /tracks/{id}.
func (h *Handle) GetTrack(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err, "Failed to fetch track.")
		return
	}
	writeJSON(w, http.StatusOK, t)
}
