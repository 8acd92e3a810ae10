package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rotenaple/ns-fischer/internal/services/notifier"
)

// WebhookClient posts messages to a Discord webhook.
type WebhookClient struct {
	url string
	t   transport
}

// NewWebhookClient returns a client posting to url.
func NewWebhookClient(url string, opts ...Option) *WebhookClient {
	return &WebhookClient{url: url, t: newTransport(opts)}
}

// Send posts msg as JSON.
func (c *WebhookClient) Send(ctx context.Context, msg notifier.Message) error {
	if c.url == "" {
		return errors.New("webhook url is empty")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook message")
	}

	_, err = c.t.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return errors.Wrap(err, "post webhook message")
	}

	return nil
}
