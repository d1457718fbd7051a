// Package whatsapp sends outbound messages through a gowa-compatible
// WhatsApp gateway. Used by the reminder worker to nudge customers with
// unfinished orders.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Leen2210/Chatbot-Samator/internal/config"
	"github.com/Leen2210/Chatbot-Samator/platform/logger"
	"github.com/Leen2210/Chatbot-Samator/platform/phone"
)

type Client struct {
	baseURL string
	apiKey  string
	sender  string
	http    *http.Client
	log     *logger.Logger
}

type gowaRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

// NewClient returns nil when no gateway is configured; a nil client
// silently drops messages so reminders degrade instead of failing.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	if cfg.WhatsAppURL == "" {
		return nil
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.WhatsAppURL, "/"),
		apiKey:  cfg.WhatsAppKey,
		sender:  cfg.WhatsAppSender,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

func (c *Client) SendMessage(ctx context.Context, phoneNumber string, message string) error {
	if c == nil {
		return nil
	}

	payload := gowaRequest{
		Phone:   phone.WhatsAppID(phoneNumber),
		Message: message,
		Sender:  c.sender,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/send/message", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", formatAuthHeader(c.apiKey))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("whatsapp sent", "phone", payload.Phone)
	return nil
}

func formatAuthHeader(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(apiKey))
	return "Basic " + encoded
}
