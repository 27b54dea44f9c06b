package intake

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"virtual-doctor-be/internal/entity"
)

// StripFences removes a surrounding markdown code fence such as ```json ... ```.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")

	if i := strings.IndexByte(s, '\n'); i >= 0 && isLanguageTag(s[:i]) {
		s = s[i+1:]
	} else {
		s = strings.TrimLeftFunc(s, unicode.IsLetter)
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isLanguageTag(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ParseReply validates the model output against the intake schema:
//
//	{"patientInfo":{"symptoms":[string],"history":{},"lifestyle":{}},"response":string}
//
// Only a surrounding code fence is tolerated; any other text around the object
// makes the reply malformed. Both top-level fields are required and the response must not be blank. Missing or
// null symptoms, history or lifestyle are read as empty.
func ParseReply(text string) (*Result, error) {
	body := StripFences(text)
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("%w: reply is not a JSON object", ErrMalformedResponse)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	rawInfo, hasInfo := top["patientInfo"]
	rawResponse, hasResponse := top["response"]
	if !hasInfo || !hasResponse {
		return nil, fmt.Errorf("%w: patientInfo and response are required", ErrMalformedResponse)
	}

	var reply string
	if err := json.Unmarshal(rawResponse, &reply); err != nil {
		return nil, fmt.Errorf("%w: response must be a string", ErrMalformedResponse)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, fmt.Errorf("%w: response is empty", ErrMalformedResponse)
	}

	var info map[string]json.RawMessage
	if err := json.Unmarshal(rawInfo, &info); err != nil || info == nil {
		return nil, fmt.Errorf("%w: patientInfo must be an object", ErrMalformedResponse)
	}

	var extracted entity.PartialPatientContext
	if raw, ok := info["symptoms"]; ok {
		if err := json.Unmarshal(raw, &extracted.Symptoms); err != nil {
			return nil, fmt.Errorf("%w: symptoms must be a list of strings", ErrMalformedResponse)
		}
	}
	if raw, ok := info["history"]; ok {
		if err := json.Unmarshal(raw, &extracted.History); err != nil {
			return nil, fmt.Errorf("%w: history must be an object", ErrMalformedResponse)
		}
	}
	if raw, ok := info["lifestyle"]; ok {
		if err := json.Unmarshal(raw, &extracted.Lifestyle); err != nil {
			return nil, fmt.Errorf("%w: lifestyle must be an object", ErrMalformedResponse)
		}
	}

	return &Result{ExtractedInfo: extracted, ReplyText: reply}, nil
}
