package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "hello")
	t.Setenv("CFG_TEST_INT", "42")
	t.Setenv("CFG_TEST_FLOAT", "0.9")
	t.Setenv("CFG_TEST_DUR", "30s")
	t.Setenv("CFG_TEST_BAD", "not-a-number")

	if got := GetEnv("CFG_TEST_STR", "x"); got != "hello" {
		t.Errorf("GetEnv = %q, want %q", got, "hello")
	}
	if got := GetEnv("CFG_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("GetEnv missing = %q, want fallback", got)
	}
	if got := GetEnvInt("CFG_TEST_INT", 1); got != 42 {
		t.Errorf("GetEnvInt = %d, want 42", got)
	}
	if got := GetEnvInt("CFG_TEST_BAD", 7); got != 7 {
		t.Errorf("GetEnvInt bad value = %d, want default 7", got)
	}
	if got := GetEnvFloat("CFG_TEST_FLOAT", 0); got != 0.9 {
		t.Errorf("GetEnvFloat = %v, want 0.9", got)
	}
	if got := GetEnvDuration("CFG_TEST_DUR", time.Second); got != 30*time.Second {
		t.Errorf("GetEnvDuration = %v, want 30s", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorksheetName != "V1" {
		t.Errorf("WorksheetName = %q, want V1", cfg.WorksheetName)
	}
	if cfg.Match.NameThreshold != 0.82 {
		t.Errorf("NameThreshold = %v, want 0.82", cfg.Match.NameThreshold)
	}
	if cfg.Match.ScoreGapThreshold != 0.05 {
		t.Errorf("ScoreGapThreshold = %v, want 0.05", cfg.Match.ScoreGapThreshold)
	}
	if cfg.Derive.VATFallbackRate != 0.20 {
		t.Errorf("VATFallbackRate = %v, want 0.20", cfg.Derive.VATFallbackRate)
	}
	if len(cfg.Columns) != len(ListingColumns) {
		t.Errorf("Columns length = %d, want %d", len(cfg.Columns), len(ListingColumns))
	}
}

func TestLoadAliases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.json")
	content := `{"Башня А": "БЦ Башня А", "Tower A": "БЦ Башня А"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	aliases, err := LoadAliases(path)
	if err != nil {
		t.Fatalf("LoadAliases: %v", err)
	}
	if aliases["Tower A"] != "БЦ Башня А" {
		t.Errorf("alias lookup = %q, want БЦ Башня А", aliases["Tower A"])
	}

	if _, err := LoadAliases(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing alias file")
	}
}

func TestSynonymTables(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		table interface{ Resolve(string) (string, bool) }
	}{
		{"use type english", "Office", "офис", UseTypeTable()},
		{"use type retail alias", "street-retail", "торговое", UseTypeTable()},
		{"fitout furnished", "с мебелью", "с отделкой", FitoutTable()},
		{"fitout white box", "White Box", "под отделку", FitoutTable()},
		{"vat included", "с НДС", "включен", VATTable()},
		{"vat usn", "УСН", "не применяется", VATTable()},
		{"vat partial phrase", "к ставке начисляется НДС", "включен", VATTable()},
		{"opex separate", "оплачивается отдельно", "не включен", OpexInclusionTable()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.table.Resolve(tt.in)
			if !ok || got != tt.want {
				t.Errorf("Resolve(%q) = %q, %v; want %q, true", tt.in, got, ok, tt.want)
			}
		})
	}
}

func TestSynonymTablesUnresolved(t *testing.T) {
	if _, ok := UseTypeTable().Resolve("жилое"); ok {
		t.Error("unknown use type must not resolve")
	}
	if _, ok := VATTable().Resolve("какой-то текст"); ok {
		t.Error("unknown vat wording must not resolve")
	}
}
