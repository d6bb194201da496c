package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/httpclient"
	"github.com/musicnerd/musicnerd/internal/logger"
)

// Notifier delivers one message to the moderators' channel.
type Notifier interface {
	Notify(ctx context.Context, content string) error
}

// DiscordNotifier posts to a Discord webhook. With no webhook URL it only logs.
type DiscordNotifier struct {
	webhookURL string
	username   string
	client     *httpclient.Client
	logger     *logger.Logger
}

func NewDiscordNotifier(webhookURL string, client *httpclient.Client, log *logger.Logger) *DiscordNotifier {
	if client == nil {
		client = httpclient.NewClient(&http.Client{Timeout: constants.DefaultHTTPTimeout}, constants.DefaultWebhookMinSpacing)
	}
	if log == nil {
		log = logger.Default()
	}
	return &DiscordNotifier{
		webhookURL: webhookURL,
		username:   "MusicNerd",
		client:     client,
		logger:     log.WithComponent("discord"),
	}
}

type webhookPayload struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

func (d *DiscordNotifier) Notify(ctx context.Context, content string) error {
	if d.webhookURL == "" {
		d.logger.Info("discord webhook not configured, skipping notification", "content", content)
		return nil
	}

	body, err := json.Marshal(webhookPayload{Content: content, Username: d.username})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DefaultHTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	d.logger.Debug("discord notification sent", "duration", time.Since(start))
	return nil
}
