package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"virtual-doctor-be/internal/entity"
	"virtual-doctor-be/internal/repository/contract"
	"virtual-doctor-be/internal/repository/memory"
	"virtual-doctor-be/pkg/keylock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepo struct {
	contract.ConversationRepository
	err error
}

func (f *failingRepo) UpdateRevision(ctx context.Context, c *entity.Conversation, expected int64) error {
	return f.err
}

func newTestStore() (*Store, *memory.ConversationRepository) {
	repo := memory.NewConversationRepository(0)
	return NewStore(repo, keylock.NewLocal()), repo
}

func turn(user, assistant string) []entity.Message {
	now := time.Now()
	return []entity.Message{
		{Sender: entity.SenderUser, Content: user, Timestamp: now},
		{Sender: entity.SenderAssistant, Content: assistant, Timestamp: now},
	}
}

func TestGetOrCreateBootstrapsEmptySession(t *testing.T) {
	store, _ := newTestStore()

	c, err := store.GetOrCreate(context.Background(), "new-session", "u1")

	require.NoError(t, err)
	assert.Equal(t, "new-session", c.SessionId)
	assert.Equal(t, "u1", c.UserId)
	assert.Empty(t, c.Messages)
	assert.Equal(t, []string{}, c.PatientContext.Symptoms)
	assert.Equal(t, map[string]interface{}{}, c.PatientContext.History)
	assert.Equal(t, map[string]interface{}{}, c.PatientContext.Lifestyle)

	stored, err := store.Get(context.Background(), "new-session")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, c.Id, stored.Id)
}

func TestGetOrCreateKeepsExistingOwner(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.GetOrCreate(ctx, "s1", "alice")
	require.NoError(t, err)
	c, err := store.GetOrCreate(ctx, "s1", "bob")

	require.NoError(t, err)
	assert.Equal(t, "alice", c.UserId)
}

func TestAppendAndSaveKeepsOrder(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	c, err := store.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)
	c, err = store.AppendAndSave(ctx, c, turn("m1", "r1"), entity.PatientContext{Symptoms: []string{"a"}})
	require.NoError(t, err)
	c, err = store.AppendAndSave(ctx, c, turn("m2", "r2"), entity.PatientContext{Symptoms: []string{"a", "b"}})
	require.NoError(t, err)

	stored, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	var contents []string
	for _, m := range stored.Messages {
		contents = append(contents, m.Sender+":"+m.Content)
	}
	assert.Equal(t, []string{"user:m1", "assistant:r1", "user:m2", "assistant:r2"}, contents)
	assert.Equal(t, []string{"a", "b"}, stored.PatientContext.Symptoms)
	assert.Equal(t, int64(2), stored.Revision)
	assert.Equal(t, c.Revision, stored.Revision)
}

func TestAppendAndSaveAfterDeleteIsNotFound(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	c, err := store.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "s1"))

	_, err = store.AppendAndSave(ctx, c, turn("m1", "r1"), c.PatientContext)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendAndSaveStaleRevisionConflicts(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)
	second, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	_, err = store.AppendAndSave(ctx, first, turn("m1", "r1"), first.PatientContext)
	require.NoError(t, err)
	_, err = store.AppendAndSave(ctx, second, turn("m2", "r2"), second.PatientContext)

	assert.ErrorIs(t, err, ErrConcurrentUpdate)
	stored, _ := store.Get(ctx, "s1")
	assert.Len(t, stored.Messages, 2)
}

func TestAppendAndSaveFailureLeavesWorkingCopyUntouched(t *testing.T) {
	repo := memory.NewConversationRepository(0)
	store := NewStore(repo, keylock.NewLocal())
	ctx := context.Background()

	c, err := store.GetOrCreate(ctx, "s1", "u1")
	require.NoError(t, err)

	broken := NewStore(&failingRepo{ConversationRepository: repo, err: errors.New("disk full")}, keylock.NewLocal())
	_, err = broken.AppendAndSave(ctx, c, turn("m1", "r1"), entity.PatientContext{Symptoms: []string{"x"}})

	require.Error(t, err)
	assert.Empty(t, c.Messages)
	assert.Empty(t, c.PatientContext.Symptoms)

	stored, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored.Messages)
	assert.Equal(t, int64(0), stored.Revision)
}

func TestAcquireSerializesSameSession(t *testing.T) {
	store, _ := newTestStore()

	release, err := store.Acquire(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = store.Acquire(ctx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	again, err := store.Acquire(context.Background(), "s1")
	require.NoError(t, err)
	again()
}
