package provider

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/kwharvest/internal/domain"
)

func TestParse(t *testing.T) {
	for _, id := range All() {
		got, err := Parse(string(id))
		if err != nil || got != id {
			t.Errorf("Parse(%q) = %q, %v", id, got, err)
		}
	}

	_, err := Parse("altavista")
	if !errors.Is(err, domain.ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions, got %v", err)
	}
	var upe *domain.UnknownProviderError
	if !errors.As(err, &upe) || upe.Provider != "altavista" {
		t.Errorf("expected UnknownProviderError, got %T", err)
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	a := All()
	a[0] = "x"
	if All()[0] != Google {
		t.Error("All must return a copy")
	}
}
