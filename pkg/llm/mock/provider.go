// Package mock answers every prompt with a fixed, well-formed intake reply.
// It lets the service run end to end without an API key.
package mock

import (
	"context"
	"encoding/json"

	"virtual-doctor-be/pkg/llm"
)

type Reply struct {
	PatientInfo struct {
		Symptoms  []string               `json:"symptoms"`
		History   map[string]interface{} `json:"history"`
		Lifestyle map[string]interface{} `json:"lifestyle"`
	} `json:"patientInfo"`
	Response string `json:"response"`
}

type MockProvider struct {
	reply string
}

var _ llm.LLMProvider = &MockProvider{}

func NewMockProvider() *MockProvider {
	var r Reply
	r.PatientInfo.Symptoms = []string{}
	r.PatientInfo.History = map[string]interface{}{}
	r.PatientInfo.Lifestyle = map[string]interface{}{}
	r.Response = "Thank you for sharing that. Could you tell me when these symptoms started and how severe they are?"

	raw, _ := json.Marshal(r)
	return &MockProvider{reply: "```json\n" + string(raw) + "\n```"}
}

func (m *MockProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.reply, nil
}

func (m *MockProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return m.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
