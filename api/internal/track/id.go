package track

import (
	gonanoid "github.com/matoous/go-nanoid/v2"

	"trackgen/api/internal/util"
)

const (
	idAlphabet  = "0123456789abcdef"
	idSuffixLen = 8
)

// NewID derives a track id from its name plus a random hex suffix,
// e.g. "Intro to Go" -> "intro-to-go-3fa91c0d". Collisions are not checked.
func NewID(name string) (string, error) {
	suffix, err := gonanoid.Generate(idAlphabet, idSuffixLen)
	if err != nil {
		return "", err
	}
	return util.Slugify(name) + "-" + suffix, nil
}
