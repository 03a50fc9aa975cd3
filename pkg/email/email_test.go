package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) *ResendSender {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)

	return NewResendSender("re_test", "leads@example.com", "Maestria", WithBaseURL(base))
}

func TestResendSender_Send(t *testing.T) {
	var got map[string]any
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	})

	err := sender.Send(context.Background(), &Message{
		To:      []string{"vendas@example.com"},
		Subject: "Novo lead",
		HTML:    "<p>oi</p>",
		Text:    "oi",
		Tags:    map[string]string{"form": "ebook"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Maestria <leads@example.com>", got["from"])
	assert.Equal(t, []any{map[string]any{"name": "form", "value": "ebook"}}, got["tags"])
	assert.Equal(t, "Novo lead", got["subject"])
	assert.Equal(t, "<p>oi</p>", got["html"])
}

func TestResendSender_ProviderError(t *testing.T) {
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"bad from"}`))
	})

	err := sender.Send(context.Background(), &Message{To: []string{"a@b.com"}, Subject: "s", Text: "t"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Resend")
}

func TestResendSender_RejectsIncompleteMessage(t *testing.T) {
	var calls int32
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	tests := []struct {
		name string
		msg  Message
	}{
		{name: "no recipients", msg: Message{Subject: "s", Text: "t"}},
		{name: "no subject", msg: Message{To: []string{"a@b.com"}, Text: "t"}},
		{name: "no body", msg: Message{To: []string{"a@b.com"}, Subject: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, sender.Send(context.Background(), &tt.msg))
		})
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, LogSender{}.Send(context.Background(), &Message{To: []string{"a@b.com"}, Subject: "s", Text: "t"}))
	assert.Error(t, LogSender{}.Send(context.Background(), &Message{}))
}
