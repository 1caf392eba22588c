package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
	"github.com/kenqu-rs/kugelpos-backend/internal/logger"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// CartEvictor removes a finished cart from the cache and repository.
type CartEvictor interface {
	Evict(ctx context.Context, cartID string) error
}

// TerminalEvent is published by the payment and cancel flows once a cart
// can no longer change.
type TerminalEvent struct {
	CartID string            `json:"cart_id"`
	Status domain.CartStatus `json:"status"`
}

type Poller struct {
	reader  messageReader
	evictor CartEvictor
	log     *logger.Logger

	retryBackoff time.Duration
}

func NewPoller(evictor CartEvictor, log *logger.Logger, topic, groupID string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{reader: reader, evictor: evictor, log: log, retryBackoff: time.Second}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// kafka-go reports a closed reader as io.EOF
			if errors.Is(err, io.EOF) {
				p.log.Info("reader closed, poller stopping")
				return
			}
			p.log.Error("error reading message", "error", err, "retry_in", p.retryBackoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.retryBackoff):
			}
			continue
		}
		if err := p.handle(ctx, m); err != nil {
			p.log.Warn("terminal event skipped", "offset", m.Offset, "error", err)
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Error("error closing reader", "error", err)
	}
}

var errNotTerminal = errors.New("status is not terminal")

func (p *Poller) handle(ctx context.Context, m kafka.Message) error {
	var ev TerminalEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		return fmt.Errorf("error parsing message: %w", err)
	}
	if ev.CartID == "" {
		return errors.New("missing or invalid cart_id")
	}
	if !ev.Status.IsTerminal() {
		return fmt.Errorf("%w: %q", errNotTerminal, ev.Status)
	}

	if err := p.evictor.Evict(ctx, ev.CartID); err != nil {
		return fmt.Errorf("failed to evict cart %s: %w", ev.CartID, err)
	}
	p.log.Info("cart evicted", "cart_id", ev.CartID, "status", ev.Status)
	return nil
}
