package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var embedded embed.FS

const (
	trackName  = "track"
	assessName = "assess"

	DefaultFlashcards = 5
)

// TrackInput is everything the track prompt needs. Counts are validated by the caller.
type TrackInput struct {
	Name        string
	Description string
	Difficulty  string
	Timeframe   string
	Checkpoints int
	Flashcards  int
}

// AssessmentInput carries the checkpoint context and the learner's answer.
type AssessmentInput struct {
	Title       string
	Description string
	Outcomes    []string
	Answer      string
}

type Builder struct {
	track  *template.Template
	assess *template.Template
}

// New parses the embedded templates. When dir is non-empty, <dir>/track.tmpl and
// <dir>/assess.tmpl replace the embedded versions if they exist.
func New(dir string) (*Builder, error) {
	tr, err := load(trackName, dir)
	if err != nil {
		return nil, err
	}
	as, err := load(assessName, dir)
	if err != nil {
		return nil, err
	}
	return &Builder{track: tr, assess: as}, nil
}

func load(name, dir string) (*template.Template, error) {
	var raw []byte
	if dir != "" {
		p := filepath.Join(dir, name+".tmpl")
		if b, err := os.ReadFile(p); err == nil && len(bytes.TrimSpace(b)) > 0 {
			raw = b
		}
	}
	if raw == nil {
		b, err := embedded.ReadFile("templates/" + name + ".tmpl")
		if err != nil {
			return nil, fmt.Errorf("prompt %q not embedded: %w", name, err)
		}
		raw = b
	}
	t, err := template.New(name).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("bad %s prompt template: %w", name, err)
	}
	return t, nil
}

// Track renders the generation prompt. A zero flashcard count falls back to DefaultFlashcards.
func (b *Builder) Track(in TrackInput) (string, error) {
	if in.Flashcards <= 0 {
		in.Flashcards = DefaultFlashcards
	}
	return render(b.track, in)
}

// Assessment renders the grading prompt for a single checkpoint.
func (b *Builder) Assessment(in AssessmentInput) (string, error) {
	return render(b.assess, in)
}

func render(t *template.Template, data any) (string, error) {
	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
