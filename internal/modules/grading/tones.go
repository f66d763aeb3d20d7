package grading

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

const tonesCatalogEnv = "GRADING_TONES_YAML"

const (
	ToneEncouraging   = "encouraging"
	ToneDirect        = "direct"
	ToneSocratic      = "socratic"
	ToneGrowthMindset = "growth_mindset"
)

//go:embed tones.yaml
var tonesFS embed.FS

// used when the YAML is missing or invalid
var fallbackTone = ToneCatalog{
	Default: ToneEncouraging,
	instructions: map[string]string{
		ToneEncouraging: `Use a warm, encouraging tone. Lead with what the student did well. Frame areas for improvement as opportunities for growth.`,
	},
}

type yamlToneCatalog struct {
	Catalog string         `yaml:"catalog"`
	Version int            `yaml:"version"`
	Default string         `yaml:"default"`
	Tones   []yamlToneSpec `yaml:"tones"`
}

type yamlToneSpec struct {
	Name        string `yaml:"name"`
	Instruction string `yaml:"instruction"`
}

// ToneCatalog maps a feedback tone name to the prompt instruction for it.
type ToneCatalog struct {
	Default      string
	instructions map[string]string
}

// Instruction resolves a tone, falling back to the default for unknown or empty names.
func (c *ToneCatalog) Instruction(tone string) (string, string) {
	if c == nil || len(c.instructions) == 0 {
		c = &fallbackTone
	}
	name := strings.ToLower(strings.TrimSpace(tone))
	if text, ok := c.instructions[name]; ok {
		return name, text
	}
	return c.Default, c.instructions[c.Default]
}

func (c *ToneCatalog) Has(tone string) bool {
	if c == nil {
		return false
	}
	_, ok := c.instructions[strings.ToLower(strings.TrimSpace(tone))]
	return ok
}

var (
	tonesOnce  sync.Once
	tonesCache *ToneCatalog
	tonesErr   error
)

// Tones returns the process-wide catalog, loaded once.
func Tones(log *logger.Logger) *ToneCatalog {
	tonesOnce.Do(func() {
		tonesCache, tonesErr = loadToneCatalog()
	})
	if tonesErr != nil {
		if log != nil {
			log.Warn("grading: tone catalog load failed; using fallback", "error", tonesErr)
		}
		return &fallbackTone
	}
	return tonesCache
}

func loadToneCatalog() (*ToneCatalog, error) {
	data, err := readToneCatalog()
	if err != nil {
		return nil, err
	}
	return parseToneCatalog(data)
}

func readToneCatalog() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(tonesCatalogEnv)); path != "" {
		return os.ReadFile(path)
	}
	return tonesFS.ReadFile("tones.yaml")
}

func parseToneCatalog(data []byte) (*ToneCatalog, error) {
	var spec yamlToneCatalog
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	if strings.TrimSpace(spec.Catalog) != "feedback_tones" {
		return nil, fmt.Errorf("unexpected catalog: %s", spec.Catalog)
	}
	if len(spec.Tones) == 0 {
		return nil, errors.New("no tones defined")
	}
	out := &ToneCatalog{instructions: make(map[string]string, len(spec.Tones))}
	for _, t := range spec.Tones {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" {
			return nil, errors.New("tone name is required")
		}
		if _, dup := out.instructions[name]; dup {
			return nil, fmt.Errorf("duplicate tone: %s", name)
		}
		text := strings.TrimSpace(t.Instruction)
		if text == "" {
			return nil, fmt.Errorf("tone %s has no instruction", name)
		}
		out.instructions[name] = text
	}
	out.Default = strings.ToLower(strings.TrimSpace(spec.Default))
	if out.Default == "" {
		out.Default = ToneEncouraging
	}
	if _, ok := out.instructions[out.Default]; !ok {
		return nil, fmt.Errorf("default tone %s is not defined", out.Default)
	}
	return out, nil
}
