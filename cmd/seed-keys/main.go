// Command seed-keys writes a KeyConfig into the shared store so the
// gateway can authenticate a caller. Keys are created out-of-band; the
// gateway itself never generates them.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"time"

	"github.com/llmfuse/hybrid-gateway/internal/shared/config"
	"github.com/llmfuse/hybrid-gateway/internal/shared/models"
	"github.com/llmfuse/hybrid-gateway/internal/shared/store"
)

func main() {
	key := flag.String("key", "dev-key-123", "API key to seed")
	name := flag.String("name", "default", "display name for the key")
	dailyLimit := flag.Int("daily-limit", 500, "daily request limit")
	rpm := flag.Int("rate-limit", 60, "per-minute rate limit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := store.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer s.Close()

	keyConfig, err := json.Marshal(models.KeyConfig{
		Name:               *name,
		DailyLimit:         *dailyLimit,
		RateLimitPerMinute: *rpm,
	})
	if err != nil {
		log.Fatalf("Failed to marshal key config: %v", err)
	}

	if err := s.Set(ctx, store.APIKeyKey(*key), string(keyConfig), 0); err != nil {
		log.Fatalf("Failed to seed API key: %v", err)
	}

	log.Printf("✓ API key %q seeded (daily=%d, rpm=%d)", *key, *dailyLimit, *rpm)
}
