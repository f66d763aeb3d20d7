package grading

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedToneCatalog(t *testing.T) {
	data, err := tonesFS.ReadFile("tones.yaml")
	if err != nil {
		t.Fatalf("read embedded catalog: %v", err)
	}
	cat, err := parseToneCatalog(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, tone := range []string{ToneEncouraging, ToneDirect, ToneSocratic, ToneGrowthMindset} {
		if !cat.Has(tone) {
			t.Fatalf("embedded catalog missing %s", tone)
		}
	}
	name, text := cat.Instruction("SOCRATIC")
	if name != ToneSocratic || !strings.Contains(text, "guiding questions") {
		t.Fatalf("unexpected socratic instruction %q: %q", name, text)
	}
	name, text = cat.Instruction("sarcastic")
	if name != ToneEncouraging || !strings.Contains(text, "warm") {
		t.Fatalf("unknown tone should fall back to default, got %q", name)
	}
}

func TestParseToneCatalogRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"wrong catalog": "catalog: other\ntones:\n  - name: a\n    instruction: x\n",
		"no tones":      "catalog: feedback_tones\n",
		"duplicate":     "catalog: feedback_tones\ndefault: a\ntones:\n  - name: a\n    instruction: x\n  - name: A\n    instruction: y\n",
		"empty text":    "catalog: feedback_tones\ndefault: a\ntones:\n  - name: a\n",
		"bad default":   "catalog: feedback_tones\ndefault: b\ntones:\n  - name: a\n    instruction: x\n",
		"not yaml":      "catalog: [",
	}
	for name, doc := range cases {
		if _, err := parseToneCatalog([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestToneCatalogEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tones.yaml")
	doc := "catalog: feedback_tones\ndefault: brief\ntones:\n  - name: brief\n    instruction: Keep it to one sentence.\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(tonesCatalogEnv, path)
	cat, err := loadToneCatalog()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if name, text := cat.Instruction(""); name != "brief" || text != "Keep it to one sentence." {
		t.Fatalf("override not applied: %q %q", name, text)
	}
}

func TestNilCatalogUsesFallback(t *testing.T) {
	var cat *ToneCatalog
	if name, text := cat.Instruction("direct"); name != ToneEncouraging || text == "" {
		t.Fatalf("nil catalog should use fallback, got %q", name)
	}
}
