package image

import (
	"context"
	"fmt"
	"strings"

	"bulkgen/internal/domain"
)

// GeneratedImage is one candidate returned by a provider. EncodedImage holds
// base64 PNG bytes without a data URI prefix.
type GeneratedImage struct {
	EncodedImage string `json:"encodedImage"`
	Seed         int64  `json:"seed,omitempty"`
	MediaKey     string `json:"mediaGenerationId,omitempty"`
}

// Panel groups the candidates produced for one prompt.
type Panel struct {
	Prompt          string           `json:"prompt,omitempty"`
	GeneratedImages []GeneratedImage `json:"generatedImages"`
}

// Result is the normalized response shared by every provider.
type Result struct {
	ImagePanels []Panel `json:"imagePanels"`
}

// FirstImage returns the first encoded image of the first panel that has one.
func (r *Result) FirstImage() (string, bool) {
	if r == nil {
		return "", false
	}
	for _, panel := range r.ImagePanels {
		for _, img := range panel.GeneratedImages {
			if encoded := strings.TrimSpace(img.EncodedImage); encoded != "" {
				return encoded, true
			}
		}
	}
	return "", false
}

// AllImages flattens every non-empty encoded image across panels.
func (r *Result) AllImages() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, panel := range r.ImagePanels {
		for _, img := range panel.GeneratedImages {
			if encoded := strings.TrimSpace(img.EncodedImage); encoded != "" {
				out = append(out, encoded)
			}
		}
	}
	return out
}

// DataURI wraps base64 PNG bytes the way they are stored on a job.
func DataURI(encoded string) string {
	return "data:image/png;base64," + encoded
}

// Generator is the contract implemented by all image providers. Implementations
// make exactly one outbound call and never retry.
type Generator interface {
	Generate(ctx context.Context, prompt string, settings domain.ProviderSettings) (*Result, error)
}

// Registry resolves the generator for a job's provider.
type Registry map[domain.Provider]Generator

func (r Registry) Lookup(provider domain.Provider) (Generator, error) {
	gen, ok := r[provider]
	if !ok || gen == nil {
		return nil, fmt.Errorf("image: no generator registered for provider %q", provider)
	}
	return gen, nil
}
