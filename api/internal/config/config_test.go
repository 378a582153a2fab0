package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.dev , ,https://b.dev,")
	if len(got) != 2 || got[0] != "http://a.dev" || got[1] != "https://b.dev" {
		t.Fatalf("unexpected list: %#v", got)
	}
	if out := splitList(""); len(out) != 0 {
		t.Fatalf("expected empty list, got %#v", out)
	}
}

func TestParseChatIDsSkipsGarbage(t *testing.T) {
	e := &env{}
	got := e.parseChatIDs("42, nope, -1001")
	if len(got) != 2 || got[0] != 42 || got[1] != -1001 {
		t.Fatalf("unexpected ids: %#v", got)
	}
	if len(e.warnings) != 1 || !strings.Contains(e.warnings[0], `"nope"`) {
		t.Fatalf("expected one warning for the bad id, got %#v", e.warnings)
	}
}

func TestGetEnvDurationFallsBack(t *testing.T) {
	e := &env{}
	t.Setenv("X_TIMEOUT", "oops")
	if d := e.getEnvDuration("X_TIMEOUT", 3*time.Second); d != 3*time.Second {
		t.Fatalf("expected fallback, got %s", d)
	}
	t.Setenv("X_TIMEOUT", "90s")
	if d := e.getEnvDuration("X_TIMEOUT", 3*time.Second); d != 90*time.Second {
		t.Fatalf("expected 90s, got %s", d)
	}
	if len(e.warnings) != 1 {
		t.Fatalf("expected one warning, got %#v", e.warnings)
	}
}

func TestResolveDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_USER", "u")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("PGHOST", "db")
	t.Setenv("PGPORT", "5433")
	t.Setenv("POSTGRES_DB", "tracks")

	dsn := ResolveDSN()
	if dsn != "postgres://u:secret@db:5433/tracks?sslmode=disable" {
		t.Fatalf("unexpected dsn %q", dsn)
	}
	if s := SafeDSNSummary(dsn); s != "host=db port=5433 db=tracks user=u" {
		t.Fatalf("unexpected summary %q", s)
	}

	t.Setenv("DATABASE_URL", "postgres://x@y/z")
	if dsn := ResolveDSN(); dsn != "postgres://x@y/z" {
		t.Fatalf("DATABASE_URL should win, got %q", dsn)
	}
}

func TestLoadWithoutPrivateKey(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env here
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("MAX_CHECKPOINTS", "many")
	t.Setenv("TELEGRAM_ADMIN_CHATS", "7")

	cfg := Load()
	if cfg.PrivateKey != "" {
		t.Fatalf("unexpected key %q", cfg.PrivateKey)
	}
	if err := cfg.RequirePrivateKey(); err == nil {
		t.Fatal("serve must refuse an empty PRIVATE_KEY")
	}
	if cfg.MaxCheckpoints != 20 || len(cfg.TelegramAdminChats) != 1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], "MAX_CHECKPOINTS") {
		t.Fatalf("expected the bad int to be reported, got %#v", cfg.Warnings)
	}

	t.Setenv("PRIVATE_KEY", "s3cret")
	if err := Load().RequirePrivateKey(); err != nil {
		t.Fatalf("RequirePrivateKey: %v", err)
	}
}

func TestLoadReportsBrokenDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/.env", []byte("A!B=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	cfg := Load()
	if len(cfg.Warnings) == 0 || !strings.Contains(cfg.Warnings[0], ".env") {
		t.Fatalf("expected a .env warning, got %#v", cfg.Warnings)
	}
}
