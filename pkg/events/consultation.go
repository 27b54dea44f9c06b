package events

import "time"

const TypeTurnCompleted = "consultation.turn_completed"

type TurnCompletedData struct {
	SessionId    string
	UserId       string
	Revision     int64
	MessageCount int
	SymptomCount int
}

func NewTurnCompleted(d TurnCompletedData, occurredAt time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"sessionId":    d.SessionId,
			"userId":       d.UserId,
			"revision":     d.Revision,
			"messageCount": d.MessageCount,
			"symptomCount": d.SymptomCount,
			"occurredAt":   occurredAt.UTC().Format(time.RFC3339Nano),
		},
		OccurredAt: occurredAt,
	}
}
