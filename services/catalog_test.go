package services

import (
	"context"
	"testing"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/repository"
)

func TestActiveTriggersDeactivation(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name  string
		ttl   time.Duration
		after int
	}{
		{"live", 0, 0},
		{"cached", time.Minute, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := repository.NewMemoryStore()
			mustCreate(t, store, models.CollectionMagicWords, "w1", models.MagicWord{Title: "Guide", IsActive: true})
			c := NewCatalog(store, tc.ttl)

			got, err := c.ActiveTriggers(ctx)
			if err != nil || len(got) != 1 || got[0].ID != "w1" {
				t.Fatalf("expected w1, got %+v / %v", got, err)
			}

			if err := store.Update(ctx, models.CollectionMagicWords, "w1", map[string]any{"isActive": false}); err != nil {
				t.Fatal(err)
			}
			got, err = c.ActiveTriggers(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tc.after {
				t.Fatalf("expected %d triggers after deactivation, got %d", tc.after, len(got))
			}
		})
	}
}
