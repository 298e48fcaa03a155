package stations

import (
	"path/filepath"
	"strings"

	"github.com/Vovarama1992/cableposter/internal/models"
	"github.com/Vovarama1992/cableposter/internal/ports"
)

var stillImageSuffixes = []string{".jpg", ".png"}

type S1FilterCandidate struct{}

func NewS1FilterCandidate() *S1FilterCandidate { return &S1FilterCandidate{} }

// Run returns ErrNoMedia or ErrUnsupportedMedia for candidates that cannot be ingested.
func (s *S1FilterCandidate) Run(c models.Candidate) error {
	if c.MediaURL == "" {
		return ports.ErrNoMedia
	}
	// the id names the temp file and the storage key
	if !validPostID(c.ID) {
		return ports.ErrUnsupportedMedia
	}
	for _, suf := range stillImageSuffixes {
		if strings.HasSuffix(c.MediaURL, suf) {
			return nil
		}
	}
	return ports.ErrUnsupportedMedia
}

func validPostID(id string) bool {
	return id != "" && id != "." && id != ".." &&
		filepath.Base(id) == id && !strings.ContainsAny(id, `/\`)
}
