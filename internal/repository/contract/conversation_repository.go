package contract

import (
	"context"
	"errors"

	"virtual-doctor-be/internal/entity"
	"virtual-doctor-be/internal/repository/specification"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationExists   = errors.New("conversation already exists")
	ErrRevisionConflict     = errors.New("conversation was modified concurrently")
)

type ConversationRepository interface {
	// Create inserts a new conversation. It fails with ErrConversationExists
	// when the session id is taken.
	Create(ctx context.Context, conversation *entity.Conversation) error
	// UpdateRevision replaces messages and patient context only if the stored
	// revision still equals expectedRevision, then bumps the revision.
	UpdateRevision(ctx context.Context, conversation *entity.Conversation, expectedRevision int64) error
	Delete(ctx context.Context, sessionId string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error)
	Ping(ctx context.Context) error
}
