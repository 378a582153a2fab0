package telegram

import (
	"errors"
	"strconv"
	"strings"

	"trackgen/api/internal/track"
)

type assessArgs struct {
	TrackID      string
	CheckpointID string
	Answer       string
}

// parseAssessArgs reads "<trackId> <checkpointId> <answer...>".
func parseAssessArgs(s string) (assessArgs, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return assessArgs{}, errors.New("usage: /assess <trackId> <checkpointId> <answer>")
	}
	// keep the answer's own spacing and line breaks
	rest := strings.TrimSpace(s)
	for _, f := range fields[:2] {
		rest = strings.TrimSpace(strings.TrimPrefix(rest, f))
	}
	return assessArgs{TrackID: fields[0], CheckpointID: fields[1], Answer: rest}, nil
}

// parseNewArgs reads "name | description | difficulty | timeframe | checkpoints [| flashcards]".
func parseNewArgs(s string) (track.CreateInput, error) {
	usage := errors.New("usage: /new name | description | difficulty | timeframe | checkpoints [| flashcards]")
	parts := strings.Split(s, "|")
	if len(parts) != 5 && len(parts) != 6 {
		return track.CreateInput{}, usage
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	n, err := strconv.Atoi(parts[4])
	if err != nil {
		return track.CreateInput{}, errors.New("checkpoints must be a number")
	}
	in := track.CreateInput{
		Name:        parts[0],
		Description: parts[1],
		Difficulty:  parts[2],
		Timeframe:   parts[3],
		Checkpoints: n,
	}
	if len(parts) == 6 {
		m, err := strconv.Atoi(parts[5])
		if err != nil {
			return track.CreateInput{}, errors.New("flashcards must be a number")
		}
		in.Flashcards = &m
	}
	return in, nil
}
