package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"gatewarden/internal/config"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultMaxTokens   = 120
	defaultTemperature = 0.8
	requestTimeout     = 15 * time.Second
)

// Canned descriptions used when no completion API is configured or a
// request fails. The client treats fox and raven as locked.
var fallbackDescriptions = map[string]string{
	"cat":   "A black cat with eyes like embers. It notices things at the gate that you do not.",
	"owl":   "A pale owl that keeps watch through the night. Nothing crosses the wall unseen.",
	"fox":   "Coming soon…",
	"raven": "Coming soon…",
}

// FlavorEngine generates short narrative flavor text through an
// OpenAI-compatible API. It is optional: with a nil client every call
// falls back to the canned text.
type FlavorEngine struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewFlavorEngine builds the engine from config. An empty API key
// returns an engine that only serves fallbacks.
func NewFlavorEngine(cfg config.FlavorConfig) *FlavorEngine {
	e := &FlavorEngine{
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
	if e.model == "" {
		e.model = defaultModel
	}
	if e.maxTokens <= 0 {
		e.maxTokens = defaultMaxTokens
	}
	if e.temperature <= 0 {
		e.temperature = defaultTemperature
	}

	if cfg.APIKey == "" {
		return e
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	e.client = openai.NewClientWithConfig(clientCfg)
	return e
}

// PetDescription returns a short description of a companion. Unknown
// pets get a generic line rather than an error.
func (e *FlavorEngine) PetDescription(ctx context.Context, pet string) string {
	fallback, known := fallbackDescriptions[pet]
	if !known {
		fallback = "A loyal companion for a lonely warden."
	}
	if e.client == nil || !known || fallback == "Coming soon…" {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		Temperature: float32(e.temperature),
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You write flavor text for a grim medieval gatekeeper game. " +
					"Answer with two sentences, no preamble.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Describe a %s companion that helps the town's gatekeeper.", pet),
			},
		},
	})
	if err != nil {
		log.Printf("[FlavorEngine] Completion failed, using fallback: %v", err)
		return fallback
	}
	if len(resp.Choices) == 0 {
		return fallback
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return fallback
	}
	return text
}
