package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cricketpark/internal/events"
	"cricketpark/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// OutboxStore is the persistence the relay needs.
type OutboxStore interface {
	CreateOutboxEvent(ctx context.Context, event *models.OutboxEvent) error
	GetOutboxEvent(ctx context.Context, id int64) (*models.OutboxEvent, error)
	GetPendingOutboxEvents(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	UpdateOutboxEventStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// Sink delivers outbox events to subscribers outside the process.
type Sink interface {
	Deliver(ctx context.Context, event *models.OutboxEvent) error
	DeadLetter(ctx context.Context, event *models.OutboxEvent) error
}

// OutboxRelay records booking events in the database and forwards them to a Sink,
// retrying with backoff until delivered or the retry budget runs out.
type OutboxRelay struct {
	store        OutboxStore
	sink         Sink
	retryPolicy  RetryPolicy
	queue        chan models.OutboxEvent
	pollInterval time.Duration
	batchSize    int
	logger       *zerolog.Logger
	now          func() time.Time
}

func NewOutboxRelay(store OutboxStore, sink Sink, retry RetryPolicy, pollInterval time.Duration, batchSize int, logger *zerolog.Logger) *OutboxRelay {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = models.DefaultOutboxBatchSize
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &OutboxRelay{
		store:        store,
		sink:         sink,
		retryPolicy:  retry.withDefaults(),
		queue:        make(chan models.OutboxEvent, models.OutboxQueueSize),
		pollInterval: pollInterval,
		batchSize:    batchSize,
		logger:       logger,
		now:          time.Now,
	}
}

// EnqueueEvent persists the event and hands it to the relay loop.
// prevStatus is the status the booking had before the change, empty on creation.
func (w *OutboxRelay) EnqueueEvent(ctx context.Context, eventType string, booking *models.Booking, prevStatus string) error {
	if eventType == "" {
		return errors.New("event type is required")
	}
	if booking == nil || booking.ID == 0 {
		return errors.New("booking id is required")
	}

	payload, err := json.Marshal(events.NewBookingPayload(booking, prevStatus))
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	event := models.OutboxEvent{
		EventType: eventType,
		BookingID: booking.ID,
		Payload:   string(payload),
		Status:    models.OutboxPending,
	}
	if err := w.store.CreateOutboxEvent(ctx, &event); err != nil {
		return fmt.Errorf("persist outbox event: %w", err)
	}

	select {
	case w.queue <- event:
	default:
		w.logger.Warn().Int64("event_id", event.ID).Msg("outbox queue full, event left to polling")
	}
	return nil
}

// Start runs the relay loop until ctx is done.
func (w *OutboxRelay) Start(ctx context.Context) {
	w.logger.Info().Msg("outbox relay started")
	defer w.logger.Info().Msg("outbox relay stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.queue:
			w.processQueued(ctx, &ev)
			continue
		default:
		}

		n, err := w.ProcessPending(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending outbox events")
		}
		if n > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case ev := <-w.queue:
			w.processQueued(ctx, &ev)
		case <-time.After(w.pollInterval):
		}
	}
}

// ProcessPending delivers one batch of due events and returns how many it handled.
func (w *OutboxRelay) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.store.GetPendingOutboxEvents(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	for i := range pending {
		w.processEvent(ctx, &pending[i])
	}
	return len(pending), nil
}

// processQueued skips events a polling pass already settled.
func (w *OutboxRelay) processQueued(ctx context.Context, ev *models.OutboxEvent) {
	current, err := w.store.GetOutboxEvent(ctx, ev.ID)
	if err != nil {
		w.logger.Error().Err(err).Int64("event_id", ev.ID).Msg("reload outbox event")
		return
	}
	if current.Status != models.OutboxPending {
		return
	}
	w.processEvent(ctx, current)
}

func (w *OutboxRelay) processEvent(ctx context.Context, ev *models.OutboxEvent) {
	if !json.Valid([]byte(ev.Payload)) {
		w.fail(ctx, ev, errors.New("payload is not valid JSON"))
		return
	}

	if err := w.sink.Deliver(ctx, ev); err != nil {
		w.retryOrFail(ctx, ev, err)
		return
	}

	if err := w.store.UpdateOutboxEventStatus(ctx, ev.ID, models.OutboxCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("event_id", ev.ID).Msg("mark outbox event completed")
	}
}

func (w *OutboxRelay) retryOrFail(ctx context.Context, ev *models.OutboxEvent, cause error) {
	attempt := ev.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		w.fail(ctx, ev, cause)
		return
	}

	next := w.now().UTC().Add(w.retryPolicy.NextDelay(attempt))
	w.logger.Warn().Err(cause).Int64("event_id", ev.ID).Int("attempt", attempt).Time("next_retry_at", next).Msg("outbox delivery failed, will retry")
	if err := w.store.UpdateOutboxEventStatus(ctx, ev.ID, models.OutboxRetry, cause.Error(), &next); err != nil {
		w.logger.Error().Err(err).Int64("event_id", ev.ID).Msg("mark outbox event for retry")
	}
}

func (w *OutboxRelay) fail(ctx context.Context, ev *models.OutboxEvent, cause error) {
	w.logger.Error().Err(cause).Int64("event_id", ev.ID).Str("event_type", ev.EventType).Msg("outbox event failed permanently")
	if err := w.store.UpdateOutboxEventStatus(ctx, ev.ID, models.OutboxFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("event_id", ev.ID).Msg("mark outbox event failed")
	}
	if err := w.sink.DeadLetter(ctx, ev); err != nil {
		w.logger.Error().Err(err).Int64("event_id", ev.ID).Msg("dead letter push failed")
	}
}

// Message is the wire form of a relayed event.
type Message struct {
	ID         int64           `json:"id"`
	Type       string          `json:"type"`
	BookingID  int64           `json:"booking_id"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// RedisSink appends each event to a list named after the channel and publishes it on the channel.
type RedisSink struct {
	client        *redis.Client
	channel       string
	deadLetterKey string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel, deadLetterKey: channel + ":deadletter"}
}

func encodeMessage(ev *models.OutboxEvent) ([]byte, error) {
	return json.Marshal(Message{
		ID:         ev.ID,
		Type:       ev.EventType,
		BookingID:  ev.BookingID,
		Payload:    json.RawMessage(ev.Payload),
		OccurredAt: ev.CreatedAt,
	})
}

func (s *RedisSink) Deliver(ctx context.Context, ev *models.OutboxEvent) error {
	if s.client == nil {
		return errors.New("redis client is nil")
	}
	data, err := encodeMessage(ev)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.channel, data)
	pipe.Publish(ctx, s.channel, data)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisSink) DeadLetter(ctx context.Context, ev *models.OutboxEvent) error {
	if s.client == nil {
		return nil
	}
	data, err := encodeMessage(ev)
	if err != nil {
		return err
	}
	return s.client.LPush(ctx, s.deadLetterKey, data).Err()
}
