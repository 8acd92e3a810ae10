package clients

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultActiveNationsURL newline-delimited list of nations that currently exist.
const DefaultActiveNationsURL = "https://raw.githubusercontent.com/ns-rot/unsmurf/refs/heads/main/public/static/currentNations.txt"

// ActiveNationsClient downloads the active nation list.
type ActiveNationsClient struct {
	url string
	t   transport
}

// NewActiveNationsClient returns a client for url, DefaultActiveNationsURL when empty.
func NewActiveNationsClient(url string, opts ...Option) *ActiveNationsClient {
	if url == "" {
		url = DefaultActiveNationsURL
	}
	return &ActiveNationsClient{url: url, t: newTransport(opts)}
}

// ActiveNames returns every non-blank line of the list, trimmed.
func (c *ActiveNationsClient) ActiveNames(ctx context.Context) ([]string, error) {
	body, err := c.t.get(ctx, c.url)
	if err != nil {
		return nil, errors.Wrap(err, "fetch active nations")
	}

	var names []string
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			names = append(names, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read active nations")
	}

	c.t.l.Debug("fetched active nations", zap.Int("count", len(names)))

	return names, nil
}
