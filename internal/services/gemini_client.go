package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/asocolnef/epiaki-backend/internal/domain"
	"github.com/asocolnef/epiaki-backend/internal/platform/logger"
	"github.com/asocolnef/epiaki-backend/internal/utils"
)

// ModelClient is the conversational model boundary. It owns no business
// logic: ordered history in, one model turn out.
type ModelClient interface {
	Send(ctx context.Context, history []domain.Turn, text string) (string, error)
}

type geminiClient struct {
	log    *logger.Logger
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiClient builds the Gemini-backed driver with fixed decoding
// parameters (low randomness, bounded output length) and the survey brief
// as system instruction. A missing API key is a configuration error the
// caller reports inline; it must not crash the process.
func NewGeminiClient(log *logger.Logger, systemBrief string) (ModelClient, error) {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	model := utils.GetEnv("GEMINI_MODEL", "gemini-3-flash-preview", log)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.2),
		TopP:              genai.Ptr[float32](0.95),
		TopK:              genai.Ptr[float32](64),
		MaxOutputTokens:   8192,
		SystemInstruction: genai.NewContentFromText(systemBrief, genai.RoleUser),
	}

	return &geminiClient{
		log:    log.With("service", "GeminiClient"),
		client: client,
		model:  model,
		config: config,
	}, nil
}

func (c *geminiClient) Send(ctx context.Context, history []domain.Turn, text string) (string, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		var role genai.Role = genai.RoleUser
		if t.Role == domain.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}

	chat, err := c.client.Chats.Create(ctx, c.model, c.config, contents)
	if err != nil {
		return "", fmt.Errorf("create chat session: %w", err)
	}
	resp, err := chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", fmt.Errorf("gemini send: %w", err)
	}
	out := resp.Text()
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("empty model response")
	}
	return out, nil
}
