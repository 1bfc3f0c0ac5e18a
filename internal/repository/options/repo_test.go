package options

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/kwharvest/internal/db"
	"github.com/kailas-cloud/kwharvest/internal/db/memory"
	domopts "github.com/kailas-cloud/kwharvest/internal/domain/options"
	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
)

func TestRepo_SaveLoad(t *testing.T) {
	r := New(memory.NewStore())
	ctx := context.Background()

	in := domopts.SearchOptions{
		Seed:       "خرید {} کفش",
		Locale:     "IR",
		Providers:  []provider.ID{provider.Google, provider.YouTube},
		Strategies: domopts.Strategies{PersianAZ: true, Questions: true},
	}
	if err := r.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := r.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Seed != in.Seed || out.Locale != "IR" || len(out.Providers) != 2 || !out.Strategies.Questions {
		t.Errorf("round trip = %+v", out)
	}
}

func TestRepo_LoadMissing(t *testing.T) {
	_, err := New(memory.NewStore()).Load(context.Background())
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestRepo_LoadMalformed(t *testing.T) {
	s := memory.NewStore()
	_ = s.Set(context.Background(), "kw:options", []byte("{not json"))
	r := New(s).WithKeyPrefix("kw:")
	if _, err := r.Load(context.Background()); err == nil {
		t.Error("expected unmarshal error")
	}
}
