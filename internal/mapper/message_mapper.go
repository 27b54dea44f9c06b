package mapper

import (
	"virtual-doctor-be/internal/dto"
	"virtual-doctor-be/internal/entity"
	"virtual-doctor-be/pkg/patient"
)

func PatientContextToDTO(pc entity.PatientContext) dto.PatientContextDTO {
	c := patient.Clone(pc)
	return dto.PatientContextDTO{
		Symptoms:  c.Symptoms,
		History:   c.History,
		Lifestyle: c.Lifestyle,
	}
}

func ConversationToSessionResponse(c *entity.Conversation) *dto.SessionResponse {
	messages := make([]dto.MessageDTO, len(c.Messages))
	for i, m := range c.Messages {
		messages[i] = dto.MessageDTO{
			Sender:    m.Sender,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}
	}
	return &dto.SessionResponse{
		SessionId:      c.SessionId,
		UserId:         c.UserId,
		Messages:       messages,
		PatientContext: PatientContextToDTO(c.PatientContext),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
