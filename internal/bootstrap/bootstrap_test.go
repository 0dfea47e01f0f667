package bootstrap

import (
	"testing"
	"time"

	"bulkgen/internal/domain"
	"bulkgen/internal/infra"
)

func TestGeneratorsRegistersEveryProvider(t *testing.T) {
	cfg := &infra.Config{
		WhiskBaseURL:    "http://whisk.local",
		ImageFXBaseURL:  "http://imagefx.local",
		ProviderTimeout: 5 * time.Second,
	}
	registry := Generators(cfg, infra.NopLogger())
	for _, provider := range []domain.Provider{domain.ProviderWhisk, domain.ProviderImageFX} {
		if _, err := registry.Lookup(provider); err != nil {
			t.Fatalf("Lookup(%s): %v", provider, err)
		}
	}
	if _, err := registry.Lookup("dalle"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
