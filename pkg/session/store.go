// Package session persists consultation sessions and enforces a single writer
// per session id.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"virtual-doctor-be/internal/entity"
	"virtual-doctor-be/internal/repository/contract"
	"virtual-doctor-be/internal/repository/specification"
	"virtual-doctor-be/pkg/keylock"
	"virtual-doctor-be/pkg/patient"
)

var (
	// ErrNotFound is returned when a session disappeared between load and save.
	ErrNotFound = contract.ErrConversationNotFound
	// ErrConcurrentUpdate is returned when another writer saved the session first.
	ErrConcurrentUpdate = contract.ErrRevisionConflict
)

// Store loads and saves sessions. Callers hold Acquire for the whole
// read-modify-write so two turns of one session never interleave.
type Store struct {
	repo   contract.ConversationRepository
	locker keylock.Locker
	now    func() time.Time
}

func NewStore(repo contract.ConversationRepository, locker keylock.Locker) *Store {
	return &Store{repo: repo, locker: locker, now: time.Now}
}

// Acquire blocks until the caller is the only writer of sessionId.
func (s *Store) Acquire(ctx context.Context, sessionId string) (func(), error) {
	release, err := s.locker.Lock(ctx, "session:"+sessionId)
	if err != nil {
		return nil, fmt.Errorf("acquire session %s: %w", sessionId, err)
	}
	return release, nil
}

// GetOrCreate returns the stored session or persists a new empty one.
// A new session is owned by userId; an existing one keeps its owner.
func (s *Store) GetOrCreate(ctx context.Context, sessionId, userId string) (*entity.Conversation, error) {
	existing, err := s.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	conversation := &entity.Conversation{
		SessionId:      sessionId,
		UserId:         userId,
		Messages:       []entity.Message{},
		PatientContext: patient.Empty(),
		CreatedAt:      s.now(),
	}
	err = s.repo.Create(ctx, conversation)
	if errors.Is(err, contract.ErrConversationExists) {
		// Another instance created it first.
		existing, err = s.Get(ctx, sessionId)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrNotFound
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create session %s: %w", sessionId, err)
	}
	return conversation, nil
}

// Get returns nil without error when the session does not exist.
func (s *Store) Get(ctx context.Context, sessionId string) (*entity.Conversation, error) {
	conversation, err := s.repo.FindOne(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionId, err)
	}
	return conversation, nil
}

// AppendAndSave appends newMessages to the working copy, replaces its patient
// context and writes both in one conditional update against the revision the
// working copy was loaded at. On failure the stored session and working copy
// are left untouched.
func (s *Store) AppendAndSave(ctx context.Context, working *entity.Conversation, newMessages []entity.Message, newContext entity.PatientContext) (*entity.Conversation, error) {
	next := *working
	next.Messages = make([]entity.Message, 0, len(working.Messages)+len(newMessages))
	next.Messages = append(next.Messages, working.Messages...)
	next.Messages = append(next.Messages, newMessages...)
	next.PatientContext = patient.Clone(newContext)

	if err := s.repo.UpdateRevision(ctx, &next, working.Revision); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConcurrentUpdate) {
			return nil, err
		}
		return nil, fmt.Errorf("save session %s: %w", working.SessionId, err)
	}
	return &next, nil
}

func (s *Store) Delete(ctx context.Context, sessionId string) error {
	if err := s.repo.Delete(ctx, sessionId); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete session %s: %w", sessionId, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
