package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
				"finishReason": "STOP",
			},
		},
	})
	return string(b)
}

func TestGeminiClient_Generate(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(geminiReply(`{"fairnessScore": 12}`)))
	}))
	defer server.Close()

	c := NewGeminiClient(server.URL, "secret", "gemini-test", WithJSONResponse())
	text, err := c.Generate(context.Background(), "judge this")

	require.NoError(t, err)
	assert.Equal(t, `{"fairnessScore": 12}`, text)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "judge this", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.GenerationConfig)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
}

func TestGeminiClient_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	c := NewGeminiClient(server.URL, "bad", "", WithRetries(3, time.Millisecond))
	_, err := c.Generate(context.Background(), "hi")

	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusBadRequest, tErr.StatusCode)
	assert.Equal(t, "API key not valid", tErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(geminiReply("ok")))
	}))
	defer server.Close()

	c := NewGeminiClient(server.URL, "k", "", WithRetries(3, time.Millisecond))
	text, err := c.Generate(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGeminiClient_SingleAttemptByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewGeminiClient(server.URL, "k", "").Generate(context.Background(), "hi")

	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusServiceUnavailable, tErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiClient_BlockedPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer server.Close()

	_, err := NewGeminiClient(server.URL, "k", "").Generate(context.Background(), "hi")

	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Contains(t, tErr.Message, "SAFETY")
}

func TestGeminiClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewGeminiClient(server.URL, "k", "", WithRetries(0, 0)).Generate(ctx, "hi")

	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestFunc(t *testing.T) {
	var o Oracle = Func(func(ctx context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	})
	text, err := o.Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "echo: x", text)
}
