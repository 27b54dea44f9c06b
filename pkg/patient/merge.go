// Package patient accumulates the patient context of a consultation turn by turn.
package patient

import "virtual-doctor-be/internal/entity"

// Empty returns a context with non-nil collections so it serializes as
// {"symptoms":[],"history":{},"lifestyle":{}}.
func Empty() entity.PatientContext {
	return entity.PatientContext{
		Symptoms:  []string{},
		History:   map[string]interface{}{},
		Lifestyle: map[string]interface{}{},
	}
}

// Merge folds the information extracted from one turn into the existing context.
//
// Symptoms are a set union keyed by exact string: existing symptoms keep their
// order and new ones are appended in the order they arrived. History and
// lifestyle are merged key by key with incoming values replacing existing ones;
// nested values are replaced whole. The inputs are never modified.
func Merge(existing entity.PatientContext, incoming entity.PartialPatientContext) entity.PatientContext {
	return entity.PatientContext{
		Symptoms:  unionSymptoms(existing.Symptoms, incoming.Symptoms),
		History:   overwriteKeys(existing.History, incoming.History),
		Lifestyle: overwriteKeys(existing.Lifestyle, incoming.Lifestyle),
	}
}

// Clone returns a copy that shares no slices or top-level maps with pc.
func Clone(pc entity.PatientContext) entity.PatientContext {
	return Merge(pc, entity.PartialPatientContext{})
}

func unionSymptoms(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, list := range [][]string{existing, incoming} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func overwriteKeys(existing, incoming map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}
