// Package events consumes metrics-ingested notifications from Kafka and
// drops the cached reports of the organizations they name.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	"github.com/ignite/campaign-intelligence/internal/pkg/logger"
)

// MetricsIngested is published after a batch of ad metrics lands for an
// organization.
type MetricsIngested struct {
	OrganizationID string   `json:"org_id"`
	CampaignIDs    []string `json:"campaign_ids,omitempty"`
	Rows           int      `json:"rows,omitempty"`
}

// ErrInvalidEvent marks a message that cannot be decoded or names no
// organization. Such messages are committed and skipped.
var ErrInvalidEvent = errors.New("events: invalid event")

// Invalidator drops cached reports for an organization.
type Invalidator interface {
	InvalidateOrganization(ctx context.Context, orgID string) error
}

// Recorder counts consumed events by outcome.
type Recorder interface {
	EventConsumed(topic string, err error)
}

// Handler applies metrics-ingested events.
type Handler struct {
	invalidator Invalidator
	recorder    Recorder
}

// NewHandler builds a handler; rec may be nil.
func NewHandler(inv Invalidator, rec Recorder) *Handler {
	return &Handler{invalidator: inv, recorder: rec}
}

// Handle decodes one message value and invalidates the organization's cache.
func (h *Handler) Handle(ctx context.Context, topic string, value []byte) (err error) {
	defer func() {
		if h.recorder != nil {
			h.recorder.EventConsumed(topic, err)
		}
	}()

	var ev MetricsIngested
	if err := json.Unmarshal(value, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if ev.OrganizationID == "" {
		return fmt.Errorf("%w: missing org_id", ErrInvalidEvent)
	}
	if err := h.invalidator.InvalidateOrganization(ctx, ev.OrganizationID); err != nil {
		return fmt.Errorf("invalidate %s: %w", ev.OrganizationID, err)
	}
	logger.Debug("reports invalidated", "org_id", ev.OrganizationID, "rows", ev.Rows)
	return nil
}

// Consumer wraps a sarama consumer group bound to one topic.
type Consumer struct {
	client  sarama.ConsumerGroup
	topic   string
	handler *Handler
	ready   chan bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewConsumer joins groupID on the given brokers.
func NewConsumer(brokers []string, groupID, topic string, h *Handler) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Version = sarama.V2_8_0_0

	client, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer group: %w", err)
	}
	return newConsumer(client, topic, h), nil
}

func newConsumer(client sarama.ConsumerGroup, topic string, h *Handler) *Consumer {
	return &Consumer{client: client, topic: topic, handler: h, ready: make(chan bool)}
}

// Start consumes in the background and returns once the first session is
// set up, or when ctx ends first.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	ready := c.ready

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			gh := &groupHandler{handler: c.handler, ready: ready}
			if err := c.client.Consume(ctx, []string{c.topic}, gh); err != nil {
				logger.Error("kafka consume failed", "topic", c.topic, "error", err)
			}
			if ctx.Err() != nil {
				return
			}
			// Rebalance: a fresh handler gets a fresh, unused ready channel.
			ready = make(chan bool)
		}
	}()

	select {
	case <-c.ready:
		logger.Info("kafka consumer ready", "topic", c.topic)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops consuming and leaves the group.
func (c *Consumer) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.client.Close()
}

// groupHandler implements sarama.ConsumerGroupHandler.
type groupHandler struct {
	handler *Handler
	ready   chan bool
	once    sync.Once
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.once.Do(func() { close(h.ready) })
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.handler.Handle(session.Context(), msg.Topic, msg.Value); err != nil {
				logger.Warn("event not applied", "topic", msg.Topic, "partition", msg.Partition,
					"offset", msg.Offset, "error", err)
			}
			// Failed events are committed too; cached reports still expire by TTL.
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
