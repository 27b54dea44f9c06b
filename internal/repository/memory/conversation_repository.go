package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"virtual-doctor-be/internal/entity"
	"virtual-doctor-be/internal/repository/contract"
	"virtual-doctor-be/internal/repository/specification"
	"virtual-doctor-be/pkg/patient"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ConversationRepository keeps conversations in process memory. Every read and
// write copies the record so callers never share state with the store.
type ConversationRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

var _ contract.ConversationRepository = &ConversationRepository{}

// NewConversationRepository creates the store. A ttl of zero keeps conversations
// until they are deleted.
func NewConversationRepository(ttl time.Duration) *ConversationRepository {
	if ttl <= 0 {
		return &ConversationRepository{cache: cache.New(cache.NoExpiration, 0)}
	}
	return &ConversationRepository{cache: cache.New(ttl, ttl/2)}
}

func (r *ConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := clone(conversation)
	if stored.Id == uuid.Nil {
		stored.Id = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.cache.Add(stored.SessionId, stored, cache.DefaultExpiration); err != nil {
		return contract.ErrConversationExists
	}
	*conversation = *clone(stored)
	return nil
}

func (r *ConversationRepository) UpdateRevision(ctx context.Context, conversation *entity.Conversation, expectedRevision int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(conversation.SessionId)
	if !found {
		return contract.ErrConversationNotFound
	}
	current := x.(*entity.Conversation)
	if current.Revision != expectedRevision {
		return contract.ErrRevisionConflict
	}

	now := time.Now()
	next := clone(current)
	next.Messages = clone(conversation).Messages
	next.PatientContext = patient.Clone(conversation.PatientContext)
	next.Revision = expectedRevision + 1
	next.UpdatedAt = &now

	r.cache.Set(next.SessionId, next, cache.DefaultExpiration)

	conversation.Revision = next.Revision
	conversation.UpdatedAt = &now
	return nil
}

func (r *ConversationRepository) Delete(ctx context.Context, sessionId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.cache.Get(sessionId); !found {
		return contract.ErrConversationNotFound
	}
	r.cache.Delete(sessionId)
	return nil
}

// FindOne supports specifications that implement specification.Matcher.
func (r *ConversationRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matchers := make([]specification.Matcher, 0, len(specs))
	for _, spec := range specs {
		m, ok := spec.(specification.Matcher)
		if !ok {
			return nil, fmt.Errorf("specification %T is not supported in memory", spec)
		}
		matchers = append(matchers, m)
	}

	if len(specs) == 1 {
		if bySession, ok := specs[0].(specification.BySessionID); ok {
			x, found := r.cache.Get(bySession.SessionID)
			if !found {
				return nil, nil
			}
			return clone(x.(*entity.Conversation)), nil
		}
	}

	for _, item := range r.cache.Items() {
		c := item.Object.(*entity.Conversation)
		if matchesAll(c, matchers) {
			return clone(c), nil
		}
	}
	return nil, nil
}

func (r *ConversationRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func matchesAll(c *entity.Conversation, matchers []specification.Matcher) bool {
	for _, m := range matchers {
		if !m.Matches(c) {
			return false
		}
	}
	return true
}

func clone(c *entity.Conversation) *entity.Conversation {
	out := *c
	out.Messages = make([]entity.Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	out.PatientContext = patient.Clone(c.PatientContext)
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		out.UpdatedAt = &t
	}
	return &out
}
