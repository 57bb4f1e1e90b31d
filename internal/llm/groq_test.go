package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, handler http.HandlerFunc) *GroqClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGroqClientWithEndpoint("test-key", srv.URL)
}

func TestCompleteSendsSystemAndUserMessages(t *testing.T) {
	client := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			MaxTokens int `json:"max_tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "llama3-8b-8192", req.Model)
		require.Len(t, req.Messages, 2)
		require.Equal(t, "system", req.Messages[0].Role)
		require.Equal(t, "user", req.Messages[1].Role)
		require.Equal(t, 500, req.MaxTokens)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "the answer"}},
			},
		})
	})

	out, err := client.Complete(context.Background(), "system prompt", "user question", Params{
		Model: "llama3-8b-8192", Temperature: 0.7, MaxTokens: 500,
	})
	require.NoError(t, err)
	require.Equal(t, "the answer", out)
}

func TestCompleteRateLimitMapsToErrTooLarge(t *testing.T) {
	client := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limit reached", "code": "rate_limit_exceeded"},
		})
	})

	_, err := client.Complete(context.Background(), "s", "u", Params{Model: "m"})
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestCompleteRequestTooLargeMapsToErrTooLarge(t *testing.T) {
	client := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "Request too large for model", "code": "context_length"},
		})
	})

	_, err := client.Complete(context.Background(), "s", "u", Params{Model: "m"})
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestCompleteGenericFailure(t *testing.T) {
	client := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "backend unavailable"},
		})
	})

	_, err := client.Complete(context.Background(), "s", "u", Params{Model: "m"})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrTooLarge)
	require.Contains(t, err.Error(), "backend unavailable")
}

func TestCompleteNoChoices(t *testing.T) {
	client := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	_, err := client.Complete(context.Background(), "s", "u", Params{Model: "m"})
	require.Error(t, err)
}
