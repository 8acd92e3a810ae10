// Package notifier renders aggregated orders into webhook messages.
package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	entity "github.com/rotenaple/ns-fischer/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// ChunkSize maximum orders rendered into one embed.
	ChunkSize = 8

	headerTitle     = "Active Auctions in Progress"
	noAuctionsText  = "No active auctions at the moment."
	debugTitle      = "Debug"
	debugText       = "Script running.\nDebug mode is enabled."
	errorTitle      = "Error"
	cteMarker       = "<:cte:1275000820391219200>"
	missingPrice    = "N/A"
	cardURLFormat   = "https://www.nationstates.net/page=deck/card=%d/season=%d"
	nationURLFormat = "https://www.nationstates.net/page=deck/nation=%s/show_market=auctions"
)

// Sender delivers messages to the notification channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Options per-config notification settings.
type Options struct {
	Mention string
	NoPing  bool
}

// Notifier posts run results through a Sender.
type Notifier struct {
	sender Sender
	opts   Options
	now    func() time.Time
	l      *zap.Logger
}

// New returns a notifier. An empty mention disables pings.
func New(sender Sender, opts Options, l *zap.Logger) *Notifier {
	if opts.Mention == "" {
		opts.NoPing = true
	}

	if l == nil {
		l = zap.NewNop()
	}

	return &Notifier{
		sender: sender,
		opts:   opts,
		now:    time.Now,
		l:      l,
	}
}

type section struct {
	title  string
	orders []entity.EnrichedOrder
}

// Announce posts bids then asks in chunks of ChunkSize, each chunk colored with
// accent. A ping precedes them when enabled. When both sides are empty a single
// "no auctions" embed is posted instead. It returns the first send error.
func (n *Notifier) Announce(ctx context.Context, bids, asks []entity.EnrichedOrder, accent entity.Rarity) error {
	if len(bids) == 0 && len(asks) == 0 {
		return n.send(ctx, Message{Embeds: []Embed{n.embed("", noAuctionsText, entity.RarityCommon.Color())}})
	}

	if !n.opts.NoPing {
		if err := n.send(ctx, Message{Content: n.opts.Mention}); err != nil {
			return err
		}
	}

	for _, s := range []section{{"Bids", bids}, {"Asks", asks}} {
		for i, chunk := range Chunk(s.orders, ChunkSize) {
			if err := n.send(ctx, n.chunkMessage(s.title, i, chunk, accent)); err != nil {
				return err
			}
		}
	}

	return nil
}

// ReportError posts an error embed.
func (n *Notifier) ReportError(ctx context.Context, description string) error {
	return n.send(ctx, Message{Embeds: []Embed{n.embed(errorTitle, description, 0)}})
}

// ReportDebug posts the debug heartbeat embed.
func (n *Notifier) ReportDebug(ctx context.Context) error {
	return n.send(ctx, Message{Embeds: []Embed{n.embed(debugTitle, debugText, 0x000000)}})
}

func (n *Notifier) chunkMessage(title string, index int, chunk []entity.EnrichedOrder, accent entity.Rarity) Message {
	var b strings.Builder
	if index == 0 {
		fmt.Fprintf(&b, "**%s:**\n", title)
	} else {
		fmt.Fprintf(&b, "**%s (cont'd):**\n", title)
	}
	for _, o := range chunk {
		b.WriteString(RenderOrder(o))
	}

	embedTitle := ""
	if index == 0 {
		embedTitle = headerTitle
	}

	return Message{Embeds: []Embed{n.embed(embedTitle, b.String(), accent.Color())}}
}

func (n *Notifier) embed(title, description string, color int) Embed {
	ts := n.now().UTC()
	return Embed{Title: title, Description: description, Color: color, Timestamp: &ts}
}

func (n *Notifier) send(ctx context.Context, msg Message) error {
	if err := n.sender.Send(ctx, msg); err != nil {
		return errors.Wrap(err, "send webhook message")
	}

	n.l.Debug("webhook message sent",
		zap.Bool("ping", msg.Content != ""),
		zap.Int("embeds", len(msg.Embeds)),
	)

	return nil
}

// RenderOrder formats one order as a block of embed text.
func RenderOrder(o entity.EnrichedOrder) string {
	var b strings.Builder

	b.WriteString(o.Rarity.Emoji())
	if o.InactiveAccount {
		b.WriteString(cteMarker)
	}
	fmt.Fprintf(&b, " [%s S%d](%s)\n", o.CardName, o.Season, fmt.Sprintf(cardURLFormat, o.CardID, o.Season))

	unix := o.ResolutionTime.Unix()
	fmt.Fprintf(&b, "Resolve: <t:%d:t> (<t:%d:R>)\n", unix, unix)

	links := make([]string, 0, len(o.Accounts))
	for _, a := range o.Accounts {
		links = append(links, fmt.Sprintf("[%s](%s)", a, fmt.Sprintf(nationURLFormat, a)))
	}
	fmt.Fprintf(&b, "Nations: %s\n", strings.Join(links, ", "))

	fmt.Fprintf(&b, "`MV:%s %s/%s`\n", o.MarketValue.StringFixed(2), price(o.LowestAsk), price(o.HighestBid))

	return b.String()
}

func price(p decimal.NullDecimal) string {
	if !p.Valid {
		return missingPrice
	}
	return p.Decimal.StringFixed(2)
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}

	var out [][]T
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}
