package llm

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
)

// ErrEmptyAnswer is returned when the model replies with no content
var ErrEmptyAnswer = errors.New("model returned an empty answer")

// Client asks an OpenAI chat model for JSON objects. Calls go through a
// circuit breaker so a failing upstream stops costing request latency.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[string]
}

// Options tune the client; zero values use the defaults
type Options struct {
	Model   string
	BaseURL string
	Timeout time.Duration
	// consecutive failures before the breaker opens
	MaxFailures uint32
	// how long the breaker stays open before a trial request
	OpenFor time.Duration
}

// NewClient creates a completion client for apiKey
func NewClient(apiKey string, opts Options) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 3
	}
	if opts.OpenFor <= 0 {
		opts.OpenFor = time.Minute
	}

	maxFailures := opts.MaxFailures
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 1,
		Timeout:     opts.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("⚠️ circuit breaker %s: %s -> %s", name, from, to)
		},
		// a caller giving up is not an upstream failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   opts.Model,
		timeout: opts.Timeout,
		breaker: breaker,
	}
}

// CompleteJSON sends system and prompt and returns the raw JSON answer
func (c *Client) CompleteJSON(ctx context.Context, system, prompt string) (string, error) {
	return c.breaker.Execute(func() (string, error) {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0.2,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyAnswer
		}
		answer := strings.TrimSpace(resp.Choices[0].Message.Content)
		if answer == "" {
			return "", ErrEmptyAnswer
		}
		return answer, nil
	})
}

// State reports the breaker state for health output
func (c *Client) State() string {
	return c.breaker.State().String()
}
