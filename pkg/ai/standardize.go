package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// StandardizeBatchSize bounds how many entity names go into one oracle call.
const StandardizeBatchSize = 300

// StandardizeGroup is a set of entity names that denote the same concept.
type StandardizeGroup struct {
	Name     string   `json:"canonicalName" jsonschema_description:"The standardized name for all entities in this group."`
	Entities []string `json:"entities" jsonschema_description:"Entity names, copied exactly from the input list, that refer to the same concept."`
}

// StandardizeResponse is the structured reply of the entity resolution call.
type StandardizeResponse struct {
	Groups []StandardizeGroup `json:"groups" jsonschema_description:"Groups of entity names that refer to the same concept."`
}

// UnmarshalJSON accepts the structured {"groups": [...]} form, a bare array
// of groups, and the plain {"standard name": ["variant", ...]} object.
func (r *StandardizeResponse) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch val := raw.(type) {
	case []any:
		r.Groups = groupsFromList(val)
		return nil
	case map[string]any:
		if list, ok := val["groups"].([]any); ok {
			r.Groups = groupsFromList(list)
			return nil
		}
		if list, ok := val["duplicates"].([]any); ok {
			r.Groups = groupsFromList(list)
			return nil
		}
		r.Groups = groupsFromMap(val)
		return nil
	}
	return fmt.Errorf("unexpected standardization response of type %T", raw)
}

func groupsFromList(list []any) []StandardizeGroup {
	groups := make([]StandardizeGroup, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := ""
		for _, key := range []string{"canonicalName", "canonical_name", "standard", "name"} {
			if s, ok := obj[key].(string); ok {
				name = s
				break
			}
		}
		var entities []string
		for _, key := range []string{"entities", "variants"} {
			if arr, ok := obj[key].([]any); ok {
				entities = stringsOf(arr)
				break
			}
		}
		groups = append(groups, StandardizeGroup{Name: name, Entities: entities})
	}
	return groups
}

func groupsFromMap(m map[string]any) []StandardizeGroup {
	groups := make([]StandardizeGroup, 0, len(m))
	for name, v := range m {
		arr, ok := v.([]any)
		if !ok {
			continue
		}
		groups = append(groups, StandardizeGroup{Name: name, Entities: stringsOf(arr)})
	}
	return groups
}

func stringsOf(arr []any) []string {
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// CallStandardizeAI asks the oracle to group alias variants among entities.
// Lists longer than StandardizeBatchSize are rejected; callers batch.
func CallStandardizeAI(
	ctx context.Context,
	entities []string,
	client GraphAIClient,
	opts ...GenerateOption,
) (*StandardizeResponse, error) {
	if client == nil {
		return nil, fmt.Errorf("ai client is nil")
	}

	cleaned := make([]string, 0, len(entities))
	for _, e := range entities {
		if name := NormalizeEntityName(e); name != "" {
			cleaned = append(cleaned, name)
		}
	}
	if len(cleaned) < 2 {
		return &StandardizeResponse{Groups: []StandardizeGroup{}}, nil
	}
	if len(cleaned) > StandardizeBatchSize {
		return nil, fmt.Errorf("standardize batch size exceeded: %d > %d", len(cleaned), StandardizeBatchSize)
	}

	var list strings.Builder
	for _, name := range cleaned {
		fmt.Fprintf(&list, "- %s\n", name)
	}
	prompt := fmt.Sprintf(StandardizePrompt, list.String())

	opts = append([]GenerateOption{WithSystemPrompts(StandardizeSystemPrompt)}, opts...)

	var res StandardizeResponse
	if err := client.GenerateCompletionWithFormat(
		ctx, "standardize_entities", "Group entity names that refer to the same concept.", prompt, &res, opts...,
	); err != nil {
		return nil, err
	}
	return &res, nil
}

// NormalizeEntityName collapses whitespace inside a name.
func NormalizeEntityName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return strings.Join(strings.Fields(value), " ")
}
