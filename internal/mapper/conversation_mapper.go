package mapper

import (
	"time"

	"virtual-doctor-be/internal/entity"
	"virtual-doctor-be/internal/model"

	"gorm.io/datatypes"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) ToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	messages := make([]entity.Message, len(c.Messages))
	for i, msg := range c.Messages {
		messages[i] = entity.Message{
			Sender:    msg.Sender,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		}
	}

	doc := c.PatientContext.Data()

	return &entity.Conversation{
		Id:        c.Id,
		SessionId: c.SessionId,
		UserId:    c.UserId,
		Messages:  messages,
		PatientContext: entity.PatientContext{
			Symptoms:  copyStrings(doc.Symptoms),
			History:   copyMap(doc.History),
			Lifestyle: copyMap(doc.Lifestyle),
		},
		Revision:  c.Revision,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ConversationMapper) ToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Conversation{
		Id:             c.Id,
		SessionId:      c.SessionId,
		UserId:         c.UserId,
		Messages:       m.MessagesToModel(c.Messages),
		PatientContext: m.PatientContextToModel(c.PatientContext),
		Revision:       c.Revision,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *ConversationMapper) MessagesToModel(messages []entity.Message) datatypes.JSONSlice[model.ConversationMessage] {
	out := make(datatypes.JSONSlice[model.ConversationMessage], len(messages))
	for i, msg := range messages {
		out[i] = model.ConversationMessage{
			Sender:    msg.Sender,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		}
	}
	return out
}

func (m *ConversationMapper) PatientContextToModel(pc entity.PatientContext) datatypes.JSONType[model.PatientContextDocument] {
	return datatypes.NewJSONType(model.PatientContextDocument{
		Symptoms:  copyStrings(pc.Symptoms),
		History:   copyMap(pc.History),
		Lifestyle: copyMap(pc.Lifestyle),
	})
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
