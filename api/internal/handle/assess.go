package handle

import (
	"encoding/json"
	"net/http"

	"trackgen/api/internal/track"
)

type assessRequest struct {
	TrackID      string          `json:"trackId"`
	CheckpointID json.RawMessage `json:"checkpointId"`
	UserAnswer   string          `json:"userAnswer"`
}

// AssessAnswer handles POST /assess_answer.
func (h *Handle) AssessAnswer(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err, "Assessment failed.")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	res, err := h.svc.Assess(ctx, track.AssessInput{
		TrackID:      req.TrackID,
		CheckpointID: textField(req.CheckpointID),
		Answer:       req.UserAnswer,
	})
	if err != nil {
		h.fail(w, r, err, "Assessment failed.")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
