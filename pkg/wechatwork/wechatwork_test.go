package wechatwork

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) *NotificationSender {
	var server = httptest.NewServer(handler)
	t.Cleanup(server.Close)
	var ns = NewNotificationSender("abc")
	ns.BaseURL = server.URL
	ns.Client = server.Client()
	return ns
}

func TestSendMarkdown(t *testing.T) {
	var got Message
	var key string
	ns := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		key = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	})

	require.NoError(t, ns.SendMarkdown(context.Background(), "**done**"))
	assert.Equal(t, "abc", key)
	assert.Equal(t, "markdown", got.MsgType)
	require.NotNil(t, got.Markdown)
	assert.Equal(t, "**done**", got.Markdown.Content)
	assert.Nil(t, got.Text)
}

func TestSendText(t *testing.T) {
	var got Message
	ns := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	})

	require.NoError(t, ns.SendText(context.Background(), "hello", []string{"@all"}, nil))
	require.NotNil(t, got.Text)
	assert.Equal(t, "hello", got.Text.Content)
	assert.Equal(t, []string{"@all"}, got.Text.MentionedList)
}

func TestSendErrors(t *testing.T) {
	ns := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	assert.Error(t, ns.SendMarkdown(context.Background(), "x"))

	ns = newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errcode":93000,"errmsg":"invalid webhook url"}`))
	})
	err := ns.SendMarkdown(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "93000")
}

func TestDisabledSender(t *testing.T) {
	var ns = NewNotificationSender("")
	assert.False(t, ns.Enabled)
	ns.BaseURL = "http://127.0.0.1:0"
	assert.NoError(t, ns.SendMarkdown(context.Background(), "x"))
}
