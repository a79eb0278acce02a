// Package wechatwork posts messages to a WeChat Work group robot webhook
package wechatwork

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://qyapi.weixin.qq.com/cgi-bin/webhook/send"

// Message is the webhook request body
type Message struct {
	MsgType  string           `json:"msgtype"`
	Text     *TextContent     `json:"text,omitempty"`
	Markdown *MarkdownContent `json:"markdown,omitempty"`
}

type TextContent struct {
	Content             string   `json:"content"`
	MentionedList       []string `json:"mentioned_list,omitempty"`
	MentionedMobileList []string `json:"mentioned_mobile_list,omitempty"`
}

type MarkdownContent struct {
	Content string `json:"content"`
}

// response is the webhook reply, errcode 0 means accepted
type response struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// NotificationSender sends messages with one webhook key.
// A sender without a key is disabled and every send is a no-op.
type NotificationSender struct {
	WebhookKey string
	BaseURL    string
	Client     *http.Client
	Enabled    bool
}

func NewNotificationSender(webhookKey string) *NotificationSender {
	return &NotificationSender{
		WebhookKey: webhookKey,
		BaseURL:    DefaultBaseURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
		Enabled:    webhookKey != "",
	}
}

func (ns *NotificationSender) SendText(ctx context.Context, content string, mentionedList, mentionedMobileList []string) error {
	if !ns.Enabled {
		return nil
	}
	return ns.send(ctx, Message{
		MsgType: "text",
		Text: &TextContent{
			Content:             content,
			MentionedList:       mentionedList,
			MentionedMobileList: mentionedMobileList,
		},
	})
}

func (ns *NotificationSender) SendMarkdown(ctx context.Context, content string) error {
	if !ns.Enabled {
		return nil
	}
	return ns.send(ctx, Message{
		MsgType:  "markdown",
		Markdown: &MarkdownContent{Content: content},
	})
}

func (ns *NotificationSender) send(ctx context.Context, message Message) error {
	var webhookURL = ns.BaseURL + "?key=" + url.QueryEscape(ns.WebhookKey)

	body, err := json.Marshal(message)
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build notification request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ns.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send notification")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("notification returned status %d", resp.StatusCode)
	}
	var reply response
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read notification reply")
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &reply); err != nil {
			return errors.Wrap(err, "decode notification reply")
		}
	}
	if reply.ErrCode != 0 {
		return errors.Errorf("notification rejected: %d %s", reply.ErrCode, reply.ErrMsg)
	}

	slog.Info("notification sent", "msgtype", message.MsgType)
	return nil
}
