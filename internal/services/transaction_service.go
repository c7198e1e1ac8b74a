// Package services orchestrates transaction writes across the store and the
// change broker.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tracker/internal/core"
	"tracker/internal/store"
)

const publishTimeout = 5 * time.Second

// ChangePublisher announces that an owner's transactions changed.
type ChangePublisher interface {
	PublishChange(ctx context.Context, ownerID string) error
}

// TransactionService saves to the store first and then tells other
// processes. A failed notice never fails the write.
type TransactionService struct {
	writer    store.Writer
	publisher ChangePublisher
	logger    *slog.Logger
}

// NewTransactionService wires a writer and an optional publisher.
func NewTransactionService(writer store.Writer, publisher ChangePublisher, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{
		writer:    writer,
		publisher: publisher,
		logger:    logger,
	}
}

// Create validates and stores nt and returns the stored transaction.
func (s *TransactionService) Create(ctx context.Context, nt core.NewTransaction) (core.Transaction, error) {
	if err := nt.Validate(); err != nil {
		return core.Transaction{}, err
	}
	id, err := s.writer.Create(ctx, nt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.announce(ctx, nt.OwnerID)
	return nt.Transaction(id), nil
}

// Delete removes ownerID's transaction id.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.writer.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.announce(ctx, ownerID)
	return nil
}

func (s *TransactionService) announce(ctx context.Context, ownerID string) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishChange(ctx, ownerID); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish change notice",
			"owner_id", ownerID,
			"error", err)
	}
}
