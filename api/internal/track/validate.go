package track

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Model output is decoded in two stages: first structurally into raw JSON
// fields, then field by field with the defaults below. Only a non-JSON
// payload, a wrong top-level shape or a missing required key rejects the
// whole response; everything else is repaired in place.
var (
	checkpointRequired = []string{"title", "description", "outcomes"}
	flashcardRequired  = []string{"question", "answer", "difficulty"}

	errNotObject = errors.New("top-level value is not a JSON object")
)

// Generated is the validated content of a track generation response.
type Generated struct {
	Checkpoints       []Checkpoint
	Flashcards        []Flashcard
	DroppedFlashcards int
}

// CountMismatch reports whether the model returned a different number of
// checkpoints than requested. It is informational only.
func (g Generated) CountMismatch(want int) bool {
	return len(g.Checkpoints) != want
}

// ValidateTrack checks and repairs a normalized track generation response.
func ValidateTrack(text string) (Generated, error) {
	obj, err := decodeObject(text)
	if err != nil {
		if errors.Is(err, errNotObject) {
			return Generated{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return Generated{}, err
	}

	raw, ok := obj["checkpoints"]
	if !ok {
		return Generated{}, fmt.Errorf("%w: missing \"checkpoints\"", ErrSchemaViolation)
	}
	items, ok := decodeArray(raw)
	if !ok {
		return Generated{}, fmt.Errorf("%w: \"checkpoints\" is not an array", ErrSchemaViolation)
	}

	out := Generated{
		Checkpoints: make([]Checkpoint, 0, len(items)),
		Flashcards:  []Flashcard{},
	}
	for i, item := range items {
		cp, err := checkpointFrom(item, i)
		if err != nil {
			return Generated{}, err
		}
		out.Checkpoints = append(out.Checkpoints, cp)
	}

	if raw, ok := obj["flashcards"]; ok {
		cards, _ := decodeArray(raw)
		for _, item := range cards {
			fc, ok := flashcardFrom(item)
			if !ok {
				out.DroppedFlashcards++
				continue
			}
			out.Flashcards = append(out.Flashcards, fc)
		}
	}
	return out, nil
}

func checkpointFrom(raw json.RawMessage, i int) (Checkpoint, error) {
	fields, ok := decodeFields(raw)
	if !ok {
		return Checkpoint{}, fmt.Errorf("%w: checkpoint %d is not an object", ErrSchemaViolation, i)
	}
	for _, k := range checkpointRequired {
		if _, ok := fields[k]; !ok {
			return Checkpoint{}, fmt.Errorf("%w: checkpoint %d is missing %q", ErrSchemaViolation, i, k)
		}
	}

	cp := Checkpoint{
		CheckpointID: i + 1,
		Title:        stringify(fields["title"]),
		Description:  stringify(fields["description"]),
		Outcomes:     stringList(fields["outcomes"]),
	}
	if u := nonEmptyString(fields["videoUrl"]); u != "" {
		cp.VideoURL = &u
		if c := nonEmptyString(fields["creatorName"]); c != "" {
			cp.CreatorName = &c
		}
	}
	return cp, nil
}

func flashcardFrom(raw json.RawMessage) (Flashcard, bool) {
	fields, ok := decodeFields(raw)
	if !ok {
		return Flashcard{}, false
	}
	for _, k := range flashcardRequired {
		if !present(fields, k) {
			return Flashcard{}, false
		}
	}
	return Flashcard{
		Question:   stringify(fields["question"]),
		Answer:     stringify(fields["answer"]),
		Difficulty: ParseDifficulty(stringify(fields["difficulty"])),
	}, true
}

// ParseDifficulty lowercases s and maps anything outside easy/medium/hard to medium.
func ParseDifficulty(s string) Difficulty {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d
	default:
		return Medium
	}
}

// ValidateAssessment checks a normalized grading response and clamps its score.
func ValidateAssessment(text string) (AssessmentResult, error) {
	obj, err := decodeObject(text)
	if err != nil {
		if errors.Is(err, errNotObject) {
			return AssessmentResult{}, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
		}
		return AssessmentResult{}, err
	}
	rawScore, hasScore := obj["score"]
	rawFeedback, hasFeedback := obj["feedback"]
	if !hasScore || !hasFeedback {
		return AssessmentResult{}, fmt.Errorf("%w: need both \"score\" and \"feedback\"", ErrSchemaViolation)
	}

	score, err := coerceScore(rawScore)
	if err != nil {
		return AssessmentResult{}, err
	}
	return AssessmentResult{
		Score:    score,
		Feedback: stringify(rawFeedback),
	}, nil
}

// coerceScore accepts a JSON number (truncated toward zero), an integer
// string or a bool, and clamps the result into [MinScore, MaxScore].
func coerceScore(raw json.RawMessage) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, fmt.Errorf("%w: score: %v", ErrMalformedResponse, err)
	}

	switch x := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: score %q is not a number", ErrMalformedResponse, x)
		}
		return clampScoreFloat(math.Trunc(f)), nil
	case string:
		s := strings.TrimSpace(x)
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				if strings.HasPrefix(s, "-") {
					return MinScore, nil
				}
				return MaxScore, nil
			}
			return 0, fmt.Errorf("%w: score %q is not an integer", ErrMalformedResponse, x)
		}
		return clampScoreFloat(float64(n)), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: score has type %T", ErrMalformedResponse, v)
	}
}

func clampScoreFloat(f float64) int {
	if f < MinScore {
		return MinScore
	}
	if f > MaxScore {
		return MaxScore
	}
	return int(f)
}

// --------------------------- raw JSON helpers ---------------------------

func decodeObject(text string) (map[string]json.RawMessage, error) {
	data := []byte(strings.TrimSpace(text))
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrMalformedResponse)
	}
	obj, ok := decodeFields(data)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}

func decodeFields(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}
	return items, true
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// present treats an explicit null the same as an absent key. Checkpoints only
// need the key itself; flashcards with null fields are dropped.
func present(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	return ok && !isNull(raw)
}

// stringify returns strings as-is, null as "", and any other value as its
// compact JSON text.
func stringify(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func stringList(raw json.RawMessage) []string {
	items, ok := decodeArray(raw)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if isNull(it) {
			continue
		}
		out = append(out, stringify(it))
	}
	return out
}

// nonEmptyString returns a JSON string value unchanged, or "" for null,
// absent or non-string values. Whitespace-only strings count as present.
func nonEmptyString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
