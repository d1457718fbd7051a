package nlu

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/Leen2210/Chatbot-Samator/platform/logger"
)

// Client talks to Gemini. It implements Service.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

var _ Service = (*Client)(nil)

func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration, log *logger.Logger) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		client:  gc,
		model:   model,
		timeout: timeout,
		log:     log,
	}, nil
}

func (c *Client) ClassifyIntent(ctx context.Context, message string, snapshot []byte, history []Message) (Intent, error) {
	raw, err := c.generate(ctx, classifySystemPrompt, buildClassifyUserPrompt(message, snapshot), history, true)
	if err != nil {
		c.log.LLMError("classify_intent", err)
		return IntentUnknown, err
	}
	return parseIntentResponse(raw), nil
}

func (c *Client) ExtractEntities(ctx context.Context, message string, snapshot []byte, history []Message, today time.Time) (Entities, error) {
	raw, err := c.generate(ctx, buildExtractionSystemPrompt(today), buildExtractionUserPrompt(message, snapshot), history, true)
	if err != nil {
		c.log.LLMError("extract_entities", err)
		return Entities{}, err
	}

	ents, err := parseExtractionResponse(raw, today)
	if err != nil {
		// A malformed response degrades to an empty extraction rather
		// than failing the turn.
		c.log.LLMError("extract_entities_parse", err)
		return Entities{}, nil
	}
	return ents, nil
}

func (c *Client) ExtractChanges(ctx context.Context, message string, snapshot []byte, today time.Time) (Entities, bool, error) {
	raw, err := c.generate(ctx, buildChangesSystemPrompt(snapshot, today), message, nil, true)
	if err != nil {
		c.log.LLMError("extract_changes", err)
		return Entities{}, false, err
	}

	ents, has, err := parseChangesResponse(raw, today)
	if err != nil {
		c.log.LLMError("extract_changes_parse", err)
		return Entities{}, false, nil
	}
	return ents, has, nil
}

func (c *Client) Reply(ctx context.Context, system, message string, history []Message) (string, error) {
	raw, err := c.generate(ctx, system, message, history, false)
	if err != nil {
		c.log.LLMError("reply", err)
		return "", err
	}
	return raw, nil
}

func (c *Client) generate(ctx context.Context, system, message string, history []Message, jsonOut bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	}
	if jsonOut {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", err
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty model response")
	}
	return text, nil
}
