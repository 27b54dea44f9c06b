package implementation

import (
	"context"
	"os"
	"testing"
	"time"

	"virtual-doctor-be/internal/entity"
	"virtual-doctor-be/internal/pkg/logger"
	"virtual-doctor-be/internal/repository/contract"
	"virtual-doctor-be/internal/repository/specification"
	"virtual-doctor-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	_ = godotenv.Load("../../../.env")

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(context.Background(), dsn, database.ConnectOptions{
		Attempts:   1,
		RetryDelay: time.Second,
	}, logger.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func newConversation(sessionId string) *entity.Conversation {
	return &entity.Conversation{
		SessionId: sessionId,
		UserId:    "u1",
		Messages:  []entity.Message{},
		PatientContext: entity.PatientContext{
			Symptoms:  []string{},
			History:   map[string]interface{}{},
			Lifestyle: map[string]interface{}{},
		},
	}
}

func TestConversationRepositoryPostgres(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationRepository(db)
	ctx := context.Background()
	sessionId := "it-" + uuid.NewString()
	t.Cleanup(func() { _ = repo.Delete(ctx, sessionId) })

	require.NoError(t, repo.Ping(ctx))

	c := newConversation(sessionId)
	require.NoError(t, repo.Create(ctx, c))
	assert.NotEqual(t, uuid.Nil, c.Id)

	t.Run("duplicate create", func(t *testing.T) {
		err := repo.Create(ctx, newConversation(sessionId))
		assert.ErrorIs(t, err, contract.ErrConversationExists)
	})

	t.Run("revision update", func(t *testing.T) {
		next := *c
		next.Messages = []entity.Message{
			{Sender: entity.SenderUser, Content: "I have a cough", Timestamp: time.Now().UTC()},
			{Sender: entity.SenderAssistant, Content: "How long?", Timestamp: time.Now().UTC()},
		}
		next.PatientContext = entity.PatientContext{
			Symptoms:  []string{"cough"},
			History:   map[string]interface{}{"asthma": true},
			Lifestyle: map[string]interface{}{},
		}
		require.NoError(t, repo.UpdateRevision(ctx, &next, 0))
		assert.Equal(t, int64(1), next.Revision)

		got, err := repo.FindOne(ctx, specification.BySessionID{SessionID: sessionId})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Len(t, got.Messages, 2)
		assert.Equal(t, []string{"cough"}, got.PatientContext.Symptoms)
		assert.Equal(t, true, got.PatientContext.History["asthma"])
	})

	t.Run("stale revision", func(t *testing.T) {
		err := repo.UpdateRevision(ctx, newConversation(sessionId), 0)
		assert.ErrorIs(t, err, contract.ErrRevisionConflict)
	})

	t.Run("missing session", func(t *testing.T) {
		err := repo.UpdateRevision(ctx, newConversation("it-missing-"+uuid.NewString()), 0)
		assert.ErrorIs(t, err, contract.ErrConversationNotFound)
	})
}
