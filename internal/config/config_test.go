package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "bid"

[auction]
id = "a1"
echo_window = "30s"

[session]
user_id = "u1"
token = "tok"
tier = "verified"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auction.ID != "a1" {
		t.Errorf("auction id = %q, want a1", cfg.Auction.ID)
	}
	if cfg.Auction.EchoWindow.Duration != 30*time.Second {
		t.Errorf("echo window = %v, want 30s", cfg.Auction.EchoWindow.Duration)
	}
	// untouched defaults survive
	if cfg.Push.MaxAttempts != 8 {
		t.Errorf("push max attempts = %d, want default 8", cfg.Push.MaxAttempts)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, `
[auction]
id = "a1"

[session]
token = "from-file"
`)
	t.Setenv("BIDROOM_SESSION_TOKEN", "from-env")
	t.Setenv("BIDROOM_PUSH_RECONNECT_MAX", "90s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session.Token != "from-env" {
		t.Errorf("session token = %q, want env override", cfg.Session.Token)
	}
	if cfg.Push.ReconnectMax.Duration != 90*time.Second {
		t.Errorf("reconnect max = %v, want 90s", cfg.Push.ReconnectMax.Duration)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bid" // requires user_id and token
	cfg.Push.URL = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"push: url", "session: user_id", "session: token", "auction: id"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %q:\n%v", want, err)
		}
	}
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Session.Token = "secret-token"
	cfg.Notify.TelegramToken = "bot-token"

	red := RedactedConfig(&cfg)
	if red.Session.Token != "***" || red.Notify.TelegramToken != "***" {
		t.Errorf("secrets not redacted: %+v", red)
	}
	if cfg.Session.Token != "secret-token" {
		t.Error("original config mutated")
	}
}
