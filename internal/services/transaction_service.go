package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/records"
)

// EventPublisher delivers transaction events. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error
}

// TransactionService orchestrates transaction writes across SQLite and AMQP.
type TransactionService struct {
	transactions *records.Transactions
	publisher    EventPublisher
	logger       *slog.Logger
}

// NewTransactionService wires the record store with an optional publisher.
// A nil publisher disables events.
func NewTransactionService(transactions *records.Transactions, publisher EventPublisher, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{
		transactions: transactions,
		publisher:    publisher,
		logger:       logger.With("component", "transaction_service"),
	}
}

// Create saves the transaction and announces it.
func (s *TransactionService) Create(ctx context.Context, owner int64, tx core.Transaction) (core.Transaction, error) {
	created, err := s.transactions.Create(ctx, owner, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, amqp.EventTransactionCreated, owner, created)
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, owner, id int64, changes records.Changes) (core.Transaction, error) {
	updated, err := s.transactions.Update(ctx, owner, id, changes)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}
	s.publish(ctx, amqp.EventTransactionUpdated, owner, updated)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, owner, id int64) error {
	if err := s.transactions.Delete(ctx, owner, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	s.publish(ctx, amqp.EventTransactionDeleted, owner, core.Transaction{ID: id})
	return nil
}

// publish never fails the caller; the row is already committed locally.
func (s *TransactionService) publish(ctx context.Context, eventType string, owner int64, tx core.Transaction) {
	if s.publisher == nil {
		return
	}
	evt := amqp.NewTransactionEvent(eventType, owner, tx)
	if err := s.publisher.PublishTransactionEvent(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			"type", eventType,
			"transaction_id", tx.ID,
			"error", err)
	}
}
