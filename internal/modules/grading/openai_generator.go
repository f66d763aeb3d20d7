package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
	"github.com/yungbote/neurobridge-grading/internal/platform/openai"
)

type openAIGenerator struct {
	ai    openai.Client
	tones *ToneCatalog
	log   *logger.Logger
}

// NewOpenAIGenerator grades through the structured-output endpoint of an OpenAI-compatible API.
func NewOpenAIGenerator(ai openai.Client, tones *ToneCatalog, log *logger.Logger) Generator {
	if log == nil {
		log = logger.Nop()
	}
	if tones == nil {
		tones = Tones(log)
	}
	return &openAIGenerator{ai: ai, tones: tones, log: log.With("service", "OpenAIGenerator")}
}

func (g *openAIGenerator) Generate(ctx context.Context, req GenerateRequest) (*GeneratedGrade, error) {
	if g.ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	if req.Rubric == nil {
		return nil, fmt.Errorf("rubric required")
	}
	_, instruction := g.tones.Instruction(req.Tone)
	system, err := buildSystemPrompt(instruction, req.TeacherGuidance, req.Rubric, req.Assignment)
	if err != nil {
		return nil, err
	}

	var opts []openai.CallOption
	if req.CacheKey != "" {
		opts = append(opts, openai.WithPromptCacheKey(req.CacheKey))
	}
	schema := gradeSchema(req.Rubric)
	obj, err := g.ai.GenerateJSON(ctx, system, buildUserPrompt(req.Content), gradeSchemaName, schema, opts...)
	if errors.Is(err, openai.ErrUnusableOutput) {
		return nil, &malformedOutputError{cause: err}
	}
	if err != nil {
		return nil, err
	}
	out, err := decodeGeneratedGrade(schema, obj)
	if err != nil {
		return nil, err
	}
	out.Model = g.ai.Model()
	g.log.Debug("generator returned grade", "submission_id", req.SubmissionID, "criteria", len(out.CriterionScores))
	return out, nil
}

// decodeGeneratedGrade maps the loose JSON object onto the typed result.
// Missing required keys and type mismatches surface here; semantic checks happen in Validate.
func decodeGeneratedGrade(schema, obj map[string]any) (*GeneratedGrade, error) {
	if missing := missingRequired(schema, obj, ""); len(missing) > 0 {
		return nil, &malformedOutputError{cause: fmt.Errorf("missing required keys: %s", strings.Join(missing, ", "))}
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode generator output: %w", err)
	}
	var out GeneratedGrade
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &malformedOutputError{cause: err}
	}
	return &out, nil
}

// malformedOutputError marks generator output that could not be decoded into the grade shape.
type malformedOutputError struct{ cause error }

func (e *malformedOutputError) Error() string {
	return "generator output does not match schema: " + e.cause.Error()
}

func (e *malformedOutputError) Unwrap() error { return e.cause }

// missingRequired walks value alongside its JSON schema and lists every required
// key that is absent or null. Keys are reported as dotted paths.
func missingRequired(schema map[string]any, value any, path string) []string {
	var missing []string
	switch schema["type"] {
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		required, _ := schema["required"].([]any)
		for _, k := range required {
			key, _ := k.(string)
			if v, ok := obj[key]; !ok || v == nil {
				missing = append(missing, joinPath(path, key))
			}
		}
		props, _ := schema["properties"].(map[string]any)
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sub, _ := props[k].(map[string]any)
			if v, ok := obj[k]; ok && v != nil && sub != nil {
				missing = append(missing, missingRequired(sub, v, joinPath(path, k))...)
			}
		}
	case "array":
		items, _ := schema["items"].(map[string]any)
		list, ok := value.([]any)
		if !ok || items == nil {
			return nil
		}
		for i, v := range list {
			missing = append(missing, missingRequired(items, v, fmt.Sprintf("%s[%d]", path, i))...)
		}
	}
	return missing
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
