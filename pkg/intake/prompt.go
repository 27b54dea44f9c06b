package intake

import (
	"encoding/json"
	"fmt"

	"virtual-doctor-be/internal/entity"
	"virtual-doctor-be/pkg/patient"
)

const intakePromptTemplate = `You are a medical intake assistant working for a virtual doctor.
Read the patient's latest message together with what is already known about them.
Extract only NEW information about symptoms, medical history and lifestyle, then write a short,
empathetic reply that asks one relevant follow-up question. Never give a definitive diagnosis.

Latest message:
%s

Known patient context (JSON):
%s

Answer with JSON only, in exactly this shape:
{"patientInfo":{"symptoms":[],"history":{},"lifestyle":{}},"response":""}`

type promptContext struct {
	Symptoms  []string               `json:"symptoms"`
	History   map[string]interface{} `json:"history"`
	Lifestyle map[string]interface{} `json:"lifestyle"`
}

// BuildPrompt renders the single-turn extraction prompt.
func BuildPrompt(message string, prior entity.PatientContext) (string, error) {
	pc := patient.Clone(prior)
	raw, err := json.Marshal(promptContext{
		Symptoms:  pc.Symptoms,
		History:   pc.History,
		Lifestyle: pc.Lifestyle,
	})
	if err != nil {
		return "", fmt.Errorf("marshal patient context: %w", err)
	}
	return fmt.Sprintf(intakePromptTemplate, message, string(raw)), nil
}
