package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"certcy/career-api/internal/config"
	"certcy/career-api/internal/logger"
	"certcy/career-api/internal/models"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultEmbedModel = "text-embedding-004"
	maxEmbedChars     = 40000
)

// CompleteOptions tunes a single completion.
type CompleteOptions struct {
	// JSONOnly asks the model for an application/json response body.
	JSONOnly bool
	// History is replayed before the prompt as alternating user/model turns.
	History []models.ChatTurn
}

// Generator produces text from a system instruction and a user prompt.
type Generator interface {
	Complete(ctx context.Context, system, prompt string, opts CompleteOptions) (string, error)
	Model() string
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type GeminiService interface {
	Generator
	Embedder
}

type geminiService struct {
	client          *genai.Client
	modelName       string
	embedModel      string
	temperature     float32
	maxOutputTokens int32
	maxLogLength    int
	log             *zap.Logger
}

func NewGeminiService(ctx context.Context, cfg config.GeminiConfig, gen config.GenerationConfig, log *zap.Logger) (GeminiService, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	embedModel := strings.TrimSpace(cfg.EmbedModel)
	if embedModel == "" {
		embedModel = defaultEmbedModel
	}

	return &geminiService{
		client:          client,
		modelName:       model,
		embedModel:      embedModel,
		temperature:     gen.Temperature,
		maxOutputTokens: gen.MaxOutputTokens,
		maxLogLength:    gen.MaxLogLength,
		log:             logger.WithFields(log, zap.String(logger.FieldModel, model)),
	}, nil
}

func (g *geminiService) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

// Complete implements Generator.
func (g *geminiService) Complete(ctx context.Context, system, prompt string, opts CompleteOptions) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	temperature := g.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: g.maxOutputTokens,
	}
	if system = strings.TrimSpace(system); system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if opts.JSONOnly {
		cfg.ResponseMIMEType = "application/json"
	}

	contents := buildContents(opts.History, prompt)

	g.log.Debug("gemini request",
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("history_turns", len(opts.History)),
		zap.Bool("json_only", opts.JSONOnly),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, g.maxLogLength)),
	)

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		g.log.Warn("gemini request failed", zap.Error(err))
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if resp == nil {
		return "", errors.New("no response generated (nil response)")
	}

	output := collectText(resp)
	if output == "" {
		g.log.Warn("gemini returned no text", zap.Int("candidates", len(resp.Candidates)))
		return "", errors.New("gemini api returned empty response")
	}

	g.log.Debug("gemini response",
		zap.Int("response_chars", len(output)),
		zap.String("response_preview", logger.TruncateForLog(output, g.maxLogLength)),
	)

	return output, nil
}

// Embed implements Embedder.
func (g *geminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) > maxEmbedChars {
		text = text[:maxEmbedChars]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, errors.New("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

func buildContents(history []models.ChatTurn, prompt string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		text := strings.TrimSpace(turn.Content)
		if text == "" {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if strings.EqualFold(turn.Role, "assistant") || strings.EqualFold(turn.Role, genai.RoleModel) {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(text, role))
	}
	return append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
}

func collectText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}
