// Package artifacts persists fetched and labeled documents under unique,
// flat names. There is no index and nothing is ever deleted.
package artifacts

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// Extension is appended to every generated artifact name.
	Extension = ".pdf"
	// LabeledPrefix marks the labeled counterpart of an artifact.
	LabeledPrefix = "labeled_"
	// ContentType is the media type artifacts are stored with.
	ContentType = "application/pdf"
)

// Store writes an artifact and returns a URI for it. A Put either leaves a
// complete object under name or nothing at all.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// NewName returns a fresh "<uuid>.pdf" artifact name from a random v4 UUID.
func NewName() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate artifact name: %w", err)
	}
	return id.String() + Extension, nil
}

// LabeledName derives the labeled artifact name from a source name.
func LabeledName(name string) string {
	return LabeledPrefix + name
}

// IsLabeled reports whether name already refers to a labeled artifact.
func IsLabeled(name string) bool {
	return strings.HasPrefix(name, LabeledPrefix)
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("artifact name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("artifact name %q must be a flat file name", name)
	}
	return nil
}
