package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ConversationMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type PatientContextDocument struct {
	Symptoms  []string               `json:"symptoms"`
	History   map[string]interface{} `json:"history"`
	Lifestyle map[string]interface{} `json:"lifestyle"`
}

type Conversation struct {
	Id             uuid.UUID                                  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId      string                                     `gorm:"type:text;not null;uniqueIndex"`
	UserId         string                                     `gorm:"type:text;not null;index"`
	Messages       datatypes.JSONSlice[ConversationMessage]   `gorm:"type:jsonb;not null"`
	PatientContext datatypes.JSONType[PatientContextDocument] `gorm:"type:jsonb;not null"`
	Revision       int64                                      `gorm:"not null;default:0"`
	CreatedAt      time.Time                                  `gorm:"autoCreateTime"`
	UpdatedAt      time.Time                                  `gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}
