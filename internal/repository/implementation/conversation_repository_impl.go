package implementation

import (
	"context"
	"errors"
	"time"

	"virtual-doctor-be/internal/entity"
	"virtual-doctor-be/internal/mapper"
	"virtual-doctor-be/internal/model"
	"virtual-doctor-be/internal/repository/contract"
	"virtual-doctor-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

type ConversationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationRepository(db *gorm.DB) contract.ConversationRepository {
	return &ConversationRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationRepositoryImpl) Create(ctx context.Context, conversation *entity.Conversation) error {
	m := r.mapper.ToModel(conversation)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return contract.ErrConversationExists
		}
		return err
	}
	*conversation = *r.mapper.ToEntity(m)
	return nil
}

func (r *ConversationRepositoryImpl) UpdateRevision(ctx context.Context, conversation *entity.Conversation, expectedRevision int64) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("session_id = ? AND revision = ?", conversation.SessionId, expectedRevision).
		Updates(map[string]interface{}{
			"messages":        r.mapper.MessagesToModel(conversation.Messages),
			"patient_context": r.mapper.PatientContextToModel(conversation.PatientContext),
			"revision":        expectedRevision + 1,
			"updated_at":      now,
		})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Conversation{}).Where("session_id = ?", conversation.SessionId).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return contract.ErrConversationNotFound
		}
		return contract.ErrRevisionConflict
	}

	conversation.Revision = expectedRevision + 1
	conversation.UpdatedAt = &now
	return nil
}

func (r *ConversationRepositoryImpl) Delete(ctx context.Context, sessionId string) error {
	res := r.db.WithContext(ctx).Where("session_id = ?", sessionId).Delete(&model.Conversation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	var m model.Conversation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ConversationRepositoryImpl) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
