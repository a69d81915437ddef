// Package config tests configuration loading.
package config

import (
	"os"
	"path/filepath"
	"testing"

	flag "github.com/spf13/pflag"
)

// isolate points TADA_HOME at a temp dir, clears TADA_* vars and moves into an
// empty working directory so no stray .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("TADA_HOME", home)
	for _, k := range []string{
		"TADA_CONFIG", "TADA_API_URL", "TADA_THEME", "TADA_GROUP",
		"TADA_LOG_FILE", "TADA_LOG_LEVEL", "TADA_SERVER_ADDR", "TADA_DATA_FILE",
	} {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL: got %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.Theme != DefaultTheme {
		t.Errorf("Theme: got %q, want %q", cfg.Theme, DefaultTheme)
	}
	if cfg.LogFile != filepath.Join(home, "tada.log") {
		t.Errorf("LogFile: got %q", cfg.LogFile)
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile: got %q, want empty when no file exists", cfg.ConfigFile)
	}
}

func TestPrecedence(t *testing.T) {
	home := isolate(t)

	writeFile(t, filepath.Join(home, ConfigFileName), `
api_url = "http://file:1"
theme = "neon"
log_level = "debug"
data_file = "from-file.json"
`)
	writeFile(t, DotEnvFileName, "TADA_THEME=mono\nTADA_DATA_FILE=from-dotenv.json\n")
	t.Setenv("TADA_DATA_FILE", "from-env.json")

	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse([]string{"--api-url", "http://flag:2", "ls", "--theme", "neon"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIURL != "http://flag:2" {
		t.Errorf("APIURL: got %q, want flag value", cfg.APIURL)
	}
	// .env fills in unset variables and beats the file
	if cfg.Theme != "mono" {
		t.Errorf("Theme: got %q, want mono from .env", cfg.Theme)
	}
	// the real environment beats .env
	if cfg.DataFile != "from-env.json" {
		t.Errorf("DataFile: got %q, want from-env.json", cfg.DataFile)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug from file", cfg.LogLevel)
	}
	if got := fs.Args(); len(got) != 3 || got[0] != "ls" {
		t.Errorf("flag parsing should stop at the subcommand, args=%v", got)
	}
}

func TestExplicitConfigMustExist(t *testing.T) {
	isolate(t)

	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse([]string{"--config", "/does/not/exist.toml"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Load(f); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestInvalidFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ConfigFileName), "api_url = [")

	if _, err := Load(nil); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{APIURL: "http://localhost:8000", Theme: "classic"}, false},
		{"https", Config{APIURL: "https://todo.example.com", Theme: "neon"}, false},
		{"bad scheme", Config{APIURL: "ftp://x", Theme: "classic"}, true},
		{"no host", Config{APIURL: "http://", Theme: "classic"}, true},
		{"bad theme", Config{APIURL: "http://x", Theme: "rainbow"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate()=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
