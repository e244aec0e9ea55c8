package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOpenAI(t *testing.T, status int, content string) (*httptest.Server, *int32) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
		assert.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "chatcmpl-1",
			Object: "chat.completion",
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestCompleteJSON_ReturnsAnswer(t *testing.T) {
	srv, _ := fakeOpenAI(t, http.StatusOK, ` {"topSellers":[]} `)
	client := NewClient("sk-test", Options{BaseURL: srv.URL})

	answer, err := client.CompleteJSON(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"topSellers":[]}`, answer)
}

func TestCompleteJSON_EmptyAnswer(t *testing.T) {
	srv, _ := fakeOpenAI(t, http.StatusOK, "   ")
	client := NewClient("sk-test", Options{BaseURL: srv.URL})

	_, err := client.CompleteJSON(context.Background(), "system", "prompt")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestCompleteJSON_BreakerOpensAfterFailures(t *testing.T) {
	srv, hits := fakeOpenAI(t, http.StatusInternalServerError, "")
	client := NewClient("sk-test", Options{
		BaseURL:     srv.URL,
		MaxFailures: 2,
		OpenFor:     time.Hour,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.CompleteJSON(ctx, "system", "prompt")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen.String(), client.State())

	before := atomic.LoadInt32(hits)
	_, err := client.CompleteJSON(ctx, "system", "prompt")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, atomic.LoadInt32(hits), "open breaker must not call upstream")
}
