package chat

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"jadwalku/internal/config"
	appLog "jadwalku/internal/log"
)

// Roles used in Message.Role.
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// ErrEmptyReply is returned when the model answers without any choice.
var ErrEmptyReply = errors.New("empty chat response")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer answers a conversation with the assistant's next message.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Provider talks to an OpenAI-compatible chat-completions endpoint
// (Gemini's compatibility endpoint by default).
type Provider struct {
	client *openai.Client
	cfg    config.AIConfig

	// baseDelay is the first retry wait; it doubles per attempt.
	baseDelay time.Duration
}

// NewProvider builds a provider from the AI section of the config.
func NewProvider(cfg config.AIConfig) *Provider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	return &Provider{
		client:    openai.NewClientWithConfig(clientConfig),
		cfg:       cfg,
		baseDelay: time.Second,
	}
}

// Complete sends messages and returns the first choice's content.
func (p *Provider) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	var reply string
	err := p.doWithRetry(ctx, func() error {
		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return ErrEmptyReply
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	return reply, nil
}

// doWithRetry retries fn with exponential backoff. Client errors other than
// 429 are returned at once.
func (p *Provider) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) || attempt == p.cfg.MaxRetries-1 {
			break
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * p.baseDelay
		appLog.Debug("AI request failed, retrying", "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.HTTPStatusCode
		return code == http.StatusTooManyRequests || code >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		code := reqErr.HTTPStatusCode
		return code == http.StatusTooManyRequests || code >= 500
	}
	return true
}
