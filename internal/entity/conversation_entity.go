package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"

	GuestUserId = "guest"
)

type Message struct {
	Sender    string
	Content   string
	Timestamp time.Time
}

// PatientContext is the accumulated clinical picture of one session.
// Symptoms behaves as a set; History and Lifestyle are free-form key/value maps.
type PatientContext struct {
	Symptoms  []string
	History   map[string]interface{}
	Lifestyle map[string]interface{}
}

// PartialPatientContext holds what a single turn extracted. Nil fields carry no update.
type PartialPatientContext struct {
	Symptoms  []string
	History   map[string]interface{}
	Lifestyle map[string]interface{}
}

type Conversation struct {
	Id             uuid.UUID
	SessionId      string
	UserId         string
	Messages       []Message
	PatientContext PatientContext
	Revision       int64
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
