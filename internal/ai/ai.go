// Package ai provides writing assistance over an OpenAI-compatible chat
// endpoint via langchaingo.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/julianstephens/markease/internal/constants"
	"github.com/julianstephens/markease/internal/i18n"
	"github.com/julianstephens/markease/internal/logger"
	"github.com/julianstephens/markease/internal/models"
)

var (
	// ErrNotConfigured means no API key is available.
	ErrNotConfigured = errors.New("AI service is not configured: set an API key with 'markease keyring set ai' or MARKEASE_AI_API_KEY")

	ErrUnknownPreset = errors.New("unknown preset")
)

// Config holds the endpoint settings.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

type Service struct {
	model   llms.Model
	timeout time.Duration
}

// New connects to the endpoint described by cfg.
func New(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = constants.DefaultAIModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultAIBaseURL
	}

	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(cfg.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	return NewWithModel(llm, cfg.Timeout), nil
}

// NewWithModel wraps an existing model. A zero timeout uses the default.
func NewWithModel(model llms.Model, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = constants.DefaultAITimeout
	}
	return &Service{model: model, timeout: timeout}
}

// Improve rewrites text following instruction. An empty answer returns
// text unchanged.
func (s *Service) Improve(ctx context.Context, text, instruction string) (string, error) {
	if s == nil || s.model == nil {
		return "", ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := llms.GenerateFromSinglePrompt(ctx, s.model, improvePrompt(text, instruction))
	if err != nil {
		logger.Error("AI improve failed", "error", err)
		return "", fmt.Errorf("AI request failed: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return text, nil
	}
	return out, nil
}

// ContinueWriting streams a continuation of text. onChunk receives each
// fragment in arrival order.
func (s *Service) ContinueWriting(ctx context.Context, text string, onChunk func(string)) error {
	if s == nil || s.model == nil {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := llms.GenerateFromSinglePrompt(ctx, s.model, continuePrompt(text),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) > 0 && onChunk != nil {
				onChunk(string(chunk))
			}
			return nil
		}),
	)
	if err != nil {
		logger.Error("AI stream failed", "error", err)
		return fmt.Errorf("AI request failed: %w", err)
	}
	return nil
}

func improvePrompt(text, instruction string) string {
	return fmt.Sprintf(`You are an expert Markdown editor helper.

Task: %s

Input Text:
"""
%s
"""

Output ONLY the improved/modified markdown text. Do not add conversational filler.`, instruction, text)
}

func continuePrompt(text string) string {
	return fmt.Sprintf(`You are a creative writing assistant. Continue the following markdown text naturally.

Current Text:
"""
%s
"""

Keep the style consistent. Return only the added text.`, text)
}

// Preset is a canned improve instruction.
type Preset string

const (
	PresetGrammar   Preset = "grammar"
	PresetSummarize Preset = "summarize"
	PresetPolish    Preset = "polish"
	PresetGeneric   Preset = "generic"
)

var Presets = []Preset{PresetGrammar, PresetSummarize, PresetPolish, PresetGeneric}

func ParsePreset(s string) (Preset, error) {
	p := Preset(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Presets {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPreset, s)
}

// Instruction returns the localized instruction for p.
func (p Preset) Instruction(lang models.Language) string {
	switch p {
	case PresetGrammar:
		return i18n.T(lang, i18n.PromptGrammar)
	case PresetSummarize:
		return i18n.T(lang, i18n.PromptSummarize)
	case PresetPolish:
		return i18n.T(lang, i18n.PromptPolish)
	default:
		return i18n.T(lang, i18n.PromptGeneric)
	}
}
