package dto

import "time"

type SendMessageRequest struct {
	SessionId string `json:"sessionId" validate:"required,max=256"`
	UserId    string `json:"userId" validate:"max=256"`
	Text      string `json:"text" validate:"required,max=8000"`
}

type PatientContextDTO struct {
	Symptoms  []string               `json:"symptoms"`
	History   map[string]interface{} `json:"history"`
	Lifestyle map[string]interface{} `json:"lifestyle"`
}

type SendMessageResponse struct {
	Response       string            `json:"response"`
	PatientContext PatientContextDTO `json:"patientContext"`
	SessionId      string            `json:"sessionId"`
}

type MessageDTO struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type SessionResponse struct {
	SessionId      string            `json:"sessionId"`
	UserId         string            `json:"userId"`
	Messages       []MessageDTO      `json:"messages"`
	PatientContext PatientContextDTO `json:"patientContext"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      *time.Time        `json:"updatedAt,omitempty"`
}

// TurnCompletedMessage is published on the event bus after a turn is saved.
type TurnCompletedMessage struct {
	SessionId    string    `json:"sessionId"`
	UserId       string    `json:"userId"`
	Revision     int64     `json:"revision"`
	MessageCount int       `json:"messageCount"`
	SymptomCount int       `json:"symptomCount"`
	OccurredAt   time.Time `json:"occurredAt"`
}
