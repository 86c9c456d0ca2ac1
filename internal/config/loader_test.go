package config

import (
	"os"
	"testing"
)

func TestFirstNonEmpty(t *testing.T) {
	if v := firstNonEmpty("", "foo", "bar"); v != "foo" {
		t.Fatalf("expected 'foo', got %q", v)
	}
	if v := firstNonEmpty(); v != "" {
		t.Fatalf("expected empty, got %q", v)
	}
}

func TestParseInt(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		n, err := parseInt("42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 42 {
			t.Fatalf("expected 42, got %d", n)
		}
	})
	t.Run("invalid", func(t *testing.T) {
		if _, err := parseInt("notanint"); err == nil {
			t.Fatalf("expected error for invalid int")
		}
	})
}

func TestIntFromEnv(t *testing.T) {
	key := "RPA_TEST_INT_FROM_ENV"
	old, had := os.LookupEnv(key)
	defer func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	}()

	_ = os.Unsetenv(key)
	if got := intFromEnv(key, 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
	_ = os.Setenv(key, "123")
	if got := intFromEnv(key, 7); got != 123 {
		t.Fatalf("expected 123, got %d", got)
	}
}

func TestLoadAppliesDefaultsWithNoEnvSet(t *testing.T) {
	for _, key := range []string{"PORT", "VECTOR_STORE_BACKEND", "MEMORY_WINDOW_SIZE", "AB_ROUTER_DEFAULT_METHOD"} {
		old, had := os.LookupEnv(key)
		_ = os.Unsetenv(key)
		defer func(k, v string, had bool) {
			if had {
				_ = os.Setenv(k, v)
			}
		}(key, old, had)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.VectorStore.Backend != "memory" {
		t.Fatalf("expected default vector store backend memory, got %q", cfg.VectorStore.Backend)
	}
	if cfg.Memory.WindowSize != 20 {
		t.Fatalf("expected default memory window 20, got %d", cfg.Memory.WindowSize)
	}
	if cfg.ABRouter.DefaultMethod != "hybrid" {
		t.Fatalf("expected default ab router method hybrid, got %q", cfg.ABRouter.DefaultMethod)
	}
}

func TestLoadHonorsExplicitEnv(t *testing.T) {
	key := "PROPERTY_BACKEND_URL"
	old, had := os.LookupEnv(key)
	defer func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	}()
	_ = os.Setenv(key, "https://backend.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.BaseURL != "https://backend.test" {
		t.Fatalf("expected explicit backend url honored, got %q", cfg.Backend.BaseURL)
	}
}
