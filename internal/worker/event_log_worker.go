package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"pdfchat/internal/model"
)

// EventLogWorker drains the session event queue and writes every event to
// the log.
type EventLogWorker struct {
	conn      *amqp.Connection
	logger    *zap.Logger
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEventLogWorker(conn *amqp.Connection, logger *zap.Logger, queueName string) *EventLogWorker {
	return &EventLogWorker{
		conn:      conn,
		logger:    logger,
		queueName: queueName,
	}
}

func (w *EventLogWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(d.Body); err != nil {
					w.logger.Warn("worker decode event failed", zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *EventLogWorker) handle(body []byte) error {
	event, err := decodeEvent(body)
	if err != nil {
		return err
	}
	w.logger.Info("session event",
		zap.String("type", event.Type),
		zap.String("session_id", event.SessionID),
		zap.String("document", event.Document),
		zap.String("detail", event.Detail),
		zap.Time("at", event.At),
	)
	return nil
}

func decodeEvent(body []byte) (model.Event, error) {
	var event model.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return model.Event{}, fmt.Errorf("unmarshal event failed: %w", err)
	}
	if event.Type == "" || event.SessionID == "" {
		return model.Event{}, fmt.Errorf("event is missing type or session id")
	}
	return event, nil
}

func (w *EventLogWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
