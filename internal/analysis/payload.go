package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"postlens/internal/core"
)

// TopicsPayload is the structured output of the topics analyzer.
type TopicsPayload struct {
	Topics []TopicCluster `json:"topics"`
}

// TopicCluster is one identified topic with its share of the post set.
type TopicCluster struct {
	Name          string   `json:"name"`
	Share         float64  `json:"share"`
	Keywords      []string `json:"keywords"`
	SamplePostIDs []string `json:"sample_post_ids"`
}

// PositioningPayload is the structured output of the positioning analyzer.
type PositioningPayload struct {
	Archetype       string   `json:"archetype"`
	Strengths       []string `json:"strengths"`
	Differentiators []string `json:"differentiators"`
	Summary         string   `json:"summary"`
}

// EvaluationPayload is the structured output of the quality evaluation
// analyzer.
type EvaluationPayload struct {
	OverallScore float64              `json:"overall_score"`
	Dimensions   []EvaluationCriteria `json:"dimensions"`
}

// EvaluationCriteria is one scored quality dimension.
type EvaluationCriteria struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

// NarrativePayload is the structured output of the narrative analyzer.
type NarrativePayload struct {
	Headline    string   `json:"headline"`
	Story       string   `json:"story"`
	Suggestions []string `json:"suggestions"`
}

// extractJSON extracts a JSON object from a model response that may wrap
// it in markdown code fences or surrounding prose.
func extractJSON(response string) string {
	startMarker := "```"
	startIdx := strings.Index(response, startMarker)
	if startIdx == -1 {
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	endIdx := strings.Index(response[startIdx+len(startMarker):], startMarker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(startMarker)

	content := response[startIdx+len(startMarker) : endIdx]
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}
	return strings.TrimSpace(content)
}

// parsePayload validates the raw model response against the schema of the
// given analyzer kind and returns a canonical re-marshaled payload.
// Partial or malformed responses are rejected: payloads are either fully
// present or absent.
func parsePayload(kind core.AnalysisKind, response string) (json.RawMessage, error) {
	jsonContent := extractJSON(strings.TrimSpace(response))

	var payload any
	switch kind {
	case core.KindTopics:
		var p TopicsPayload
		if err := json.Unmarshal([]byte(jsonContent), &p); err != nil {
			return nil, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		if len(p.Topics) == 0 {
			return nil, errors.New("topics list is empty")
		}
		for _, t := range p.Topics {
			if t.Name == "" {
				return nil, errors.New("topic name is required")
			}
			if t.Share < 0 || t.Share > 1 {
				return nil, errors.New("topic share must be between 0 and 1")
			}
		}
		payload = p

	case core.KindPositioning:
		var p PositioningPayload
		if err := json.Unmarshal([]byte(jsonContent), &p); err != nil {
			return nil, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		if p.Archetype == "" {
			return nil, errors.New("archetype is required")
		}
		if p.Summary == "" {
			return nil, errors.New("summary is required")
		}
		payload = p

	case core.KindEvaluation:
		var p EvaluationPayload
		if err := json.Unmarshal([]byte(jsonContent), &p); err != nil {
			return nil, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		if p.OverallScore < 0 || p.OverallScore > 10 {
			return nil, errors.New("overall_score must be between 0 and 10")
		}
		if len(p.Dimensions) == 0 {
			return nil, errors.New("dimensions list is empty")
		}
		for _, d := range p.Dimensions {
			if d.Name == "" {
				return nil, errors.New("dimension name is required")
			}
			if d.Score < 0 || d.Score > 10 {
				return nil, errors.New("dimension score must be between 0 and 10")
			}
		}
		payload = p

	case core.KindNarrative:
		var p NarrativePayload
		if err := json.Unmarshal([]byte(jsonContent), &p); err != nil {
			return nil, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		if p.Headline == "" {
			return nil, errors.New("headline is required")
		}
		if p.Story == "" {
			return nil, errors.New("story is required")
		}
		payload = p

	default:
		return nil, fmt.Errorf("unknown analyzer kind %q", kind)
	}

	canonical, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to re-marshal payload: %w", err)
	}
	return canonical, nil
}
