// Package resultsnotifier publishes round updates to the message bus so that
// live views can refresh.
package resultsnotifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	"github.com/Black-And-White-Club/live-results/pkg/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	nc "github.com/nats-io/nats.go"
)

// RoundUpdatedTopic carries a RoundUpdatedPayload after every committed mutation.
const RoundUpdatedTopic = "results.round.updated.v1"

// RoundUpdatedPayload is the message body published on RoundUpdatedTopic.
type RoundUpdatedPayload struct {
	CompetitionID string               `json:"competition_id"`
	Round         *resultsdomain.Round `json:"round"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// Notifier publishes round updates through a watermill publisher.
type Notifier struct {
	publisher message.Publisher
	logger    *slog.Logger
	clock     func() time.Time
}

// NewNotifier wraps publisher.
func NewNotifier(publisher message.Publisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{publisher: publisher, logger: logger, clock: time.Now}
}

// RoundUpdated publishes the round as it is after the mutation.
func (n *Notifier) RoundUpdated(ctx context.Context, competitionID string, round *resultsdomain.Round) error {
	payload, err := json.Marshal(RoundUpdatedPayload{
		CompetitionID: competitionID,
		Round:         round,
		OccurredAt:    n.clock().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal round update: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("competition_id", competitionID)
	msg.Metadata.Set("round_id", round.ID.String())
	if correlationID := chimiddleware.GetReqID(ctx); correlationID != "" {
		middleware.SetCorrelationID(correlationID, msg)
	}

	if err := n.publisher.Publish(RoundUpdatedTopic, msg); err != nil {
		return fmt.Errorf("failed to publish round update: %w", err)
	}

	n.logger.DebugContext(ctx, "Published round update",
		attr.CompetitionID(competitionID),
		attr.RoundID(round.ID.String()),
		attr.String("message_id", msg.UUID),
	)
	return nil
}

// Close closes the underlying publisher.
func (n *Notifier) Close() error {
	return n.publisher.Close()
}

// NewNATSPublisher connects a watermill publisher to NATS core. Round updates
// are only interesting while live, so nothing is persisted in JetStream.
func NewNATSPublisher(url string, logger *slog.Logger) (message.Publisher, error) {
	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:       url,
			Marshaler: &nats.NATSMarshaler{},
			JetStream: nats.JetStreamConfig{Disabled: true},
			NatsOptions: []nc.Option{
				nc.RetryOnFailedConnect(true),
				nc.Name("live-results"),
			},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}
	return publisher, nil
}

// NewInProcessPubSub returns an in-memory publisher and subscriber, used when
// no NATS server is configured.
func NewInProcessPubSub(logger *slog.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NewSlogLogger(logger))
}
