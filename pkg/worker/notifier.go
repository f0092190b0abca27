package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/repository"
	"github.com/Kamaljeyaram/Matrix/internal/service/meeting"
	"github.com/Kamaljeyaram/Matrix/internal/service/notification"
	"github.com/Kamaljeyaram/Matrix/pkg/logger"
	"github.com/Kamaljeyaram/Matrix/pkg/messaging"
	"github.com/Kamaljeyaram/Matrix/pkg/metrics"
)

// Deliverer sends a booked meeting notification to its recipient.
type Deliverer interface {
	Deliver(ctx context.Context, payload *model.MeetingNotificationPayload) error
}

type NotifierConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	StaleAfter    time.Duration
	SweepInterval time.Duration
	CleanupAfter  time.Duration
}

// Notifier drains the outbox: it delivers each pending meeting notification
// and settles the tentative meeting record one way or the other. A delivered
// notification confirms the record; a permanently undeliverable one expires
// it and dead-letters the event, so no consumable code outlives a recipient
// who never learned it.
type Notifier struct {
	outbox    repository.OutboxRepository
	meetings  *meeting.Service
	deliverer Deliverer
	broker    messaging.Broker
	config    NotifierConfig
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewNotifier(
	outbox repository.OutboxRepository,
	meetings *meeting.Service,
	deliverer Deliverer,
	broker messaging.Broker,
	config NotifierConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Notifier {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		panic("MaxRetries must be greater than 0")
	}
	if config.RetryBackoff <= 0 {
		panic("RetryBackoff must be greater than 0")
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = time.Hour
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = 10 * time.Minute
	}
	if config.CleanupAfter <= 0 {
		config.CleanupAfter = 24 * time.Hour
	}

	return &Notifier{
		outbox:    outbox,
		meetings:  meetings,
		deliverer: deliverer,
		broker:    broker,
		config:    config,
		logger:    logger,
		metrics:   metrics,
	}
}

func (n *Notifier) Start(ctx context.Context) {
	poll := time.NewTicker(n.config.PollInterval)
	defer poll.Stop()
	sweep := time.NewTicker(n.config.SweepInterval)
	defer sweep.Stop()

	n.logger.Info("Starting notification worker")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Shutting down notification worker")
			return
		case <-poll.C:
			if err := n.ProcessEvents(ctx); err != nil {
				n.logger.Error(err, "Failed to process notification events")
			}
		case <-sweep.C:
			n.Sweep(ctx)
		}
	}
}

// ProcessEvents drains one batch of pending outbox events.
func (n *Notifier) ProcessEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(n.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := n.outbox.GetPendingEventsWithLock(ctx, n.config.BatchSize)
	if err != nil {
		n.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return fmt.Errorf("failed to get pending events: %w", err)
	}
	n.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

	for _, event := range events {
		if err := n.processEvent(ctx, event); err != nil {
			n.logger.Error(err, "Failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
		}
	}
	return nil
}

func (n *Notifier) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	if event.EventType != model.EventTypeMeetingNotification {
		return n.deadLetter(ctx, event, fmt.Errorf("unknown event type %q", event.EventType))
	}

	var payload model.MeetingNotificationPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return n.deadLetter(ctx, event, fmt.Errorf("malformed payload: %w", err))
	}

	err := n.deliverer.Deliver(ctx, &payload)
	if err == nil {
		return n.settleDelivered(ctx, event, &payload)
	}
	if notification.Permanent(err) || event.RetryCount+1 >= n.config.MaxRetries {
		return n.settleUndeliverable(ctx, event, &payload, err)
	}

	// Transient failure with retries left: push the event back with backoff.
	n.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
	errStr := err.Error()
	retryAt := time.Now().Add(n.config.RetryBackoff * time.Duration(1<<event.RetryCount))
	updateErr := n.outbox.UpdateStatus(ctx, event.ID, model.OutboxStatusRetry, &errStr, &retryAt)
	n.countDB("schedule_retry", updateErr)
	if updateErr != nil {
		return fmt.Errorf("failed to schedule retry: %w", updateErr)
	}
	return err
}

func (n *Notifier) countDB(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	n.metrics.DatabaseOperations.WithLabelValues(operation, status).Inc()
}

func (n *Notifier) settleDelivered(ctx context.Context, event *model.OutboxEvent, payload *model.MeetingNotificationPayload) error {
	if err := n.meetings.Confirm(ctx, payload.MeetingCode); err != nil {
		// The record may already be settled by a cancellation or sweep.
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to confirm meeting record: %w", err)
		}
	}
	err := n.outbox.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil, nil)
	n.countDB("mark_processed", err)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	n.metrics.OutboxEventsProcessed.Inc()

	if n.broker != nil {
		if err := n.broker.Publish(ctx, event.EventType, messaging.Message{
			Type:    event.EventType,
			Payload: payload,
		}); err != nil {
			n.logger.Error(err, "Failed to publish processed event",
				"event_id", event.ID.String())
		}
	}
	return nil
}

func (n *Notifier) settleUndeliverable(ctx context.Context, event *model.OutboxEvent, payload *model.MeetingNotificationPayload, cause error) error {
	n.logger.Error(cause, "Notification undeliverable, expiring meeting code",
		"event_id", event.ID.String(),
		"appointment_id", payload.AppointmentID.String())

	if err := n.meetings.Expire(ctx, payload.MeetingCode); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to expire meeting record: %w", err)
	}
	n.metrics.MeetingCodesExpired.Inc()

	errStr := cause.Error()
	event.ErrorMessage = &errStr
	if err := n.deadLetter(ctx, event, cause); err != nil {
		return err
	}
	return cause
}

func (n *Notifier) deadLetter(ctx context.Context, event *model.OutboxEvent, cause error) error {
	if event.ErrorMessage == nil {
		errStr := cause.Error()
		event.ErrorMessage = &errStr
	}
	err := n.outbox.MoveToDeadLetter(ctx, event)
	n.countDB("move_to_deadletter", err)
	if err != nil {
		return fmt.Errorf("failed to dead-letter event: %w", err)
	}
	n.metrics.OutboxEventsFailed.Inc()
	return nil
}

// Sweep expires tentative meeting records that never got their notification
// delivered and prunes old processed events.
func (n *Notifier) Sweep(ctx context.Context) {
	swept, err := n.meetings.ExpireStale(ctx, n.config.StaleAfter)
	n.countDB("expire_stale", err)
	if err != nil {
		n.logger.Error(err, "Failed to expire stale meeting records")
	} else if swept > 0 {
		n.logger.Info("Expired stale meeting records", "count", swept)
	}

	deleted, err := n.outbox.DeleteProcessedBefore(ctx, time.Now().Add(-n.config.CleanupAfter))
	n.countDB("delete_processed", err)
	if err != nil {
		n.logger.Error(err, "Failed to prune processed events")
	} else if deleted > 0 {
		n.logger.Info("Pruned processed outbox events", "count", deleted)
	}
}
