package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "MAX_CLIENTS", "SIM_TICK_HZ", "BROADCAST_HZ", "CODEC", "PANIC_RADIUS"} {
		t.Setenv(k, "")
	}
	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Addr != ":2567" || c.MaxClients != 4 || c.SimTickHz != 60 || c.BroadcastHz != 20 || c.Codec != "json" {
		t.Fatalf("defaults = %+v", c)
	}
	if c.Tuning.PanicRadius != 120 {
		t.Fatalf("PanicRadius = %v", c.Tuning.PanicRadius)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9000")
	t.Setenv("MAX_CLIENTS", "8")
	t.Setenv("CODEC", "msgpack")
	t.Setenv("PANIC_RADIUS", "90.5")
	t.Setenv("PANIC_COOLDOWN_MS", "1000")
	t.Setenv("STICK_RADIUS", "30")
	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Addr != ":9000" || c.MaxClients != 8 || c.Codec != "msgpack" {
		t.Fatalf("overrides = %+v", c)
	}
	if c.Tuning.PanicRadius != 90.5 || c.Tuning.PanicCooldownMs != 1000 || c.Tuning.StickRadius != 30 {
		t.Fatalf("tuning = %+v", c.Tuning)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"MAX_CLIENTS":    "many",
		"CODEC":          "xml",
		"BROADCAST_HZ":   "120",
		"FLEE_MIN_SPEED": "9",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestInitConfigReadsEnvFile(t *testing.T) {
	t.Setenv("QUACK_TEST_VALUE", "")
	os.Unsetenv("QUACK_TEST_VALUE")
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("QUACK_TEST_VALUE=hello\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	InitConfig(path)
	if got := os.Getenv("QUACK_TEST_VALUE"); got != "hello" {
		t.Fatalf("QUACK_TEST_VALUE = %q", got)
	}
	InitConfig(filepath.Join(t.TempDir(), "missing.env"))
}
