package track

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"trackgen/api/internal/llm"
	"trackgen/api/internal/prompt"
	"trackgen/api/internal/util"
)

// Store persists tracks. Get must return an error matching ErrNotFound for
// unknown ids.
type Store interface {
	Insert(ctx context.Context, t Track) error
	List(ctx context.Context) ([]Track, error)
	Get(ctx context.Context, id string) (Track, error)
}

type Options struct {
	MaxCheckpoints    int
	DefaultFlashcards int
}

type Service struct {
	store   Store
	engine  llm.Engine
	prompts *prompt.Builder
	log     *zap.Logger
	opts    Options
	now     func() time.Time
}

func NewService(st Store, eng llm.Engine, prompts *prompt.Builder, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxCheckpoints <= 0 {
		opts.MaxCheckpoints = 20
	}
	if opts.DefaultFlashcards <= 0 {
		opts.DefaultFlashcards = prompt.DefaultFlashcards
	}
	return &Service{
		store:   st,
		engine:  eng,
		prompts: prompts,
		log:     log.Named("track"),
		opts:    opts,
		now:     time.Now,
	}
}

type CreateInput struct {
	Name        string
	Description string
	Difficulty  string
	Timeframe   string
	Checkpoints int
	Flashcards  *int
}

func (in CreateInput) validate(maxCheckpoints int) error {
	for _, f := range []struct{ key, val string }{
		{"track_name", in.Name},
		{"description", in.Description},
		{"difficulty", in.Difficulty},
		{"timeframe", in.Timeframe},
	} {
		if strings.TrimSpace(f.val) == "" {
			return fmt.Errorf("%w: %s is required", ErrBadRequest, f.key)
		}
	}
	if in.Checkpoints <= 0 {
		return fmt.Errorf("%w: num_checkpoints must be a positive integer", ErrBadRequest)
	}
	if in.Checkpoints > maxCheckpoints {
		return fmt.Errorf("%w: num_checkpoints must be at most %d", ErrBadRequest, maxCheckpoints)
	}
	if in.Flashcards != nil && *in.Flashcards <= 0 {
		return fmt.Errorf("%w: num_flashcards must be a positive integer", ErrBadRequest)
	}
	return nil
}

// Create generates a track with one model call and stores it. Nothing is
// persisted unless the reply validates.
func (s *Service) Create(ctx context.Context, in CreateInput) (Track, error) {
	if err := in.validate(s.opts.MaxCheckpoints); err != nil {
		return Track{}, err
	}
	cards := s.opts.DefaultFlashcards
	if in.Flashcards != nil {
		cards = *in.Flashcards
	}
	name := strings.TrimSpace(in.Name)

	p, err := s.prompts.Track(prompt.TrackInput{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Difficulty:  strings.TrimSpace(in.Difficulty),
		Timeframe:   strings.TrimSpace(in.Timeframe),
		Checkpoints: in.Checkpoints,
		Flashcards:  cards,
	})
	if err != nil {
		return Track{}, err
	}

	raw, err := s.generate(ctx, "track", p)
	if err != nil {
		return Track{}, err
	}
	gen, err := ValidateTrack(util.StripCodeFences(raw))
	if err != nil {
		s.log.Warn("track reply rejected",
			zap.String("engine", s.engine.Name()),
			zap.Error(err),
			zap.String("raw", util.ClampRunes(raw, 500)))
		return Track{}, err
	}
	if gen.CountMismatch(in.Checkpoints) {
		s.log.Warn("checkpoint count drift",
			zap.Int("requested", in.Checkpoints),
			zap.Int("returned", len(gen.Checkpoints)))
	}
	if gen.DroppedFlashcards > 0 {
		s.log.Warn("dropped incomplete flashcards", zap.Int("dropped", gen.DroppedFlashcards))
	}

	id, err := NewID(name)
	if err != nil {
		return Track{}, fmt.Errorf("%w: track id: %v", ErrUpstream, err)
	}
	t := Track{
		MongoID:       id,
		ID:            id,
		Title:         name,
		Description:   strings.TrimSpace(in.Description),
		Difficulty:    strings.TrimSpace(in.Difficulty),
		Timeframe:     strings.TrimSpace(in.Timeframe),
		Checkpoints:   gen.Checkpoints,
		Flashcards:    gen.Flashcards,
		IsUserCreated: true,
		CreatedAt:     s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return Track{}, fmt.Errorf("%w: insert track %s: %v", ErrUpstream, id, err)
	}
	s.log.Info("track created",
		zap.String("id", id),
		zap.Int("checkpoints", len(t.Checkpoints)),
		zap.Int("flashcards", len(t.Flashcards)))
	return t, nil
}

// List returns every stored track in insertion order, never nil.
func (s *Service) List(ctx context.Context) ([]Track, error) {
	ts, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list tracks: %v", ErrUpstream, err)
	}
	if ts == nil {
		ts = []Track{}
	}
	return ts, nil
}

func (s *Service) Get(ctx context.Context, id string) (Track, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Track{}, fmt.Errorf("%w: track id is required", ErrBadRequest)
	}
	t, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Track{}, fmt.Errorf("%w: track %q", ErrNotFound, id)
		}
		return Track{}, fmt.Errorf("%w: get track %s: %v", ErrUpstream, id, err)
	}
	return t, nil
}

// FindCheckpoint resolves a checkpoint within a stored track. The id must
// parse as an integer, but the match compares the stored id's decimal text
// with checkpointID exactly, so "01" or "+1" do not match checkpoint 1.
func (s *Service) FindCheckpoint(ctx context.Context, trackID, checkpointID string) (Checkpoint, error) {
	if _, err := strconv.Atoi(strings.TrimSpace(checkpointID)); err != nil {
		return Checkpoint{}, fmt.Errorf("%w: checkpointId %q is not an integer", ErrBadRequest, checkpointID)
	}
	t, err := s.Get(ctx, trackID)
	if err != nil {
		return Checkpoint{}, err
	}
	for _, cp := range t.Checkpoints {
		if strconv.Itoa(cp.CheckpointID) == checkpointID {
			return cp, nil
		}
	}
	return Checkpoint{}, fmt.Errorf("%w: checkpoint %q in track %q", ErrNotFound, checkpointID, t.ID)
}

type AssessInput struct {
	TrackID      string
	CheckpointID string
	Answer       string
}

// Assess grades a learner answer against one checkpoint. Results are not stored.
func (s *Service) Assess(ctx context.Context, in AssessInput) (AssessmentResult, error) {
	if strings.TrimSpace(in.TrackID) == "" || strings.TrimSpace(in.CheckpointID) == "" || strings.TrimSpace(in.Answer) == "" {
		return AssessmentResult{}, fmt.Errorf("%w: trackId, checkpointId and userAnswer are required", ErrBadRequest)
	}
	cp, err := s.FindCheckpoint(ctx, in.TrackID, in.CheckpointID)
	if err != nil {
		return AssessmentResult{}, err
	}

	p, err := s.prompts.Assessment(prompt.AssessmentInput{
		Title:       cp.Title,
		Description: cp.Description,
		Outcomes:    cp.Outcomes,
		Answer:      in.Answer,
	})
	if err != nil {
		return AssessmentResult{}, err
	}
	raw, err := s.generate(ctx, "assess", p)
	if err != nil {
		return AssessmentResult{}, err
	}
	res, err := ValidateAssessment(util.StripCodeFences(raw))
	if err != nil {
		s.log.Warn("assessment reply rejected",
			zap.String("engine", s.engine.Name()),
			zap.Error(err),
			zap.String("raw", util.ClampRunes(raw, 500)))
		return AssessmentResult{}, err
	}
	s.log.Info("answer assessed",
		zap.String("track", in.TrackID),
		zap.Int("checkpoint", cp.CheckpointID),
		zap.Int("score", res.Score))
	return res, nil
}

func (s *Service) generate(ctx context.Context, kind, p string) (string, error) {
	start := time.Now()
	raw, err := s.engine.Generate(ctx, p)
	if err != nil {
		s.log.Error("model call failed",
			zap.String("kind", kind),
			zap.String("engine", s.engine.Name()),
			zap.String("model", s.engine.GetModel()),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("%w: %s %s: %v", ErrUpstream, s.engine.Name(), kind, err)
	}
	s.log.Debug("model reply",
		zap.String("kind", kind),
		zap.String("engine", s.engine.Name()),
		zap.Duration("took", time.Since(start)),
		zap.String("raw", raw))
	return raw, nil
}
