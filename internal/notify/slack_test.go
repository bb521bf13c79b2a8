package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlackNotifierWithoutCredentials(t *testing.T) {
	t.Setenv("SLACK_BOT_USER_TOKEN", "")
	t.Setenv("SLACK_WEBHOOK_URL", "")
	assert.Nil(t, NewSlackNotifier("#benchmarks"))
}

func TestNewSlackNotifierWebhookOnly(t *testing.T) {
	t.Setenv("SLACK_BOT_USER_TOKEN", "")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.example/T000/B000/xyz")

	n := NewSlackNotifier("#benchmarks")
	require.NotNil(t, n)
	assert.Nil(t, n.client)
	assert.Equal(t, "https://hooks.slack.example/T000/B000/xyz", n.webhookURL)
}

func TestNotifyPostsWebhookPayload(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	}))
	defer srv.Close()

	n := &SlackNotifier{
		webhookURL: srv.URL,
		httpClient: &http.Client{Timeout: time.Second},
	}
	require.NoError(t, n.Notify(context.Background(), "Sweep finished: 12 records"))
	assert.Equal(t, "Sweep finished: 12 records", payload["text"])
}

func TestNotifyWebhookFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := &SlackNotifier{
		webhookURL: srv.URL,
		httpClient: &http.Client{Timeout: time.Second},
	}
	err := n.Notify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
