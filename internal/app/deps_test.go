package app

import (
	"log/slog"
	"testing"
	"time"

	"github.com/prostly/backend/internal/config"
	"github.com/prostly/backend/internal/docstore"
	"github.com/prostly/backend/internal/realtime"
)

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		JWTSecret:         "test-secret",
		Issuer:            "prostly-test",
		AccessTTL:         time.Minute,
		RefreshTTL:        time.Hour,
		AuthRatePerMinute: 10,
		AuthRateBurst:     5,
	}

	logger := slog.Default()
	store := docstore.NewMemoryStore(nil)
	hub := realtime.NewHub(logger)

	deps := buildDependencies(store, hub, cfg, logger)

	if deps.Accounts == nil {
		t.Fatal("expected account repository to be configured")
	}
	if deps.Profiles == nil {
		t.Fatal("expected profile repository to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Friends == nil {
		t.Fatal("expected friend service to be configured")
	}
	if deps.Notifications == nil {
		t.Fatal("expected notification service to be configured")
	}
	if deps.Drinks == nil {
		t.Fatal("expected drink service to be configured")
	}
	if deps.Hub == nil {
		t.Fatal("expected realtime hub to be configured")
	}
	if deps.Verifier == nil {
		t.Fatal("expected token verifier to be configured")
	}
	if deps.Limiter == nil {
		t.Fatal("expected rate limiter to be configured")
	}
}
