// Package notifications publishes activity events produced by comment
// and like mutations. Delivery is fire-and-forget over Redis pub/sub:
// the mutation has already committed by the time an event is published,
// and a publish failure is logged, never propagated.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Verbs emitted by the comment engine.
const (
	VerbCommented = "commented"
	VerbReplied   = "replied"
	VerbLiked     = "liked"
)

// Event is the payload delivered to the activity-feed subsystem, which
// owns deduplication and rendering.
type Event struct {
	ID         string `json:"id"`
	ActorID    uint   `json:"actor_id"`
	Verb       string `json:"verb"`
	CommentID  uint   `json:"comment_id"`
	TargetKind string `json:"target_kind"`
	TargetID   uint   `json:"target_id"`
	// RecipientID selects the per-user channel; nil events go to the
	// shared activity channel only.
	RecipientID *uint     `json:"recipient_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Notifier publishes activity events into Redis channels.
type Notifier struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewNotifier returns a Notifier. A nil client disables publishing,
// which keeps local development working without Redis.
func NewNotifier(rdb *redis.Client, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{rdb: rdb, logger: logger}
}

// Publish sends the event to the shared activity channel and, when a
// recipient is set, to that user's channel. Errors are logged and
// swallowed: a notification failure must never fail the mutation that
// produced it.
func (n *Notifier) Publish(ctx context.Context, event Event) {
	if n.rdb == nil {
		return
	}
	event.ID = uuid.NewString()
	event.OccurredAt = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("marshal activity event", "verb", event.Verb, "error", err)
		return
	}

	channels := []string{"activity:events"}
	if event.RecipientID != nil {
		channels = append(channels, fmt.Sprintf("activity:user:%d", *event.RecipientID))
	}
	for _, channel := range channels {
		if err := n.rdb.Publish(ctx, channel, payload).Err(); err != nil {
			n.logger.Error("publish activity event",
				"channel", channel, "verb", event.Verb, "error", err)
		}
	}
}

// StartSubscriber subscribes to per-user activity channels and invokes
// onMessage for each payload. Used by the activity-feed consumer.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "activity:user:*")
	ch := sub.Channel()

	go func() {
		for msg := range ch {
			onMessage(msg.Channel, msg.Payload)
		}
	}()

	return nil
}
