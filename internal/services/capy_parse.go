package services

import (
	"encoding/json"
	"strings"

	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/types"
)

const (
	maxRecommendations = 3
	maxReasonLength    = 100
)

// ParsedRecommendation is one entry of the model's JSON output after
// validation and clamping.
type ParsedRecommendation struct {
	PostID     string  `json:"post_id"`
	PostTitle  string  `json:"post_title"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// rawRecommendation tolerates a missing or non-numeric confidence field.
type rawRecommendation struct {
	PostID     string          `json:"post_id"`
	PostTitle  string          `json:"post_title"`
	Reason     string          `json:"reason"`
	Confidence json.RawMessage `json:"confidence"`
}

// parseRecommendations turns the raw model text into at most three
// validated recommendations. It never fails: any malformed input yields an
// empty slice, with the raw text logged for diagnosis.
//
// The parser takes the model's post_id at face value; it does not check it
// against knownPosts. The store's foreign key is the only backstop.
func parseRecommendations(raw string, knownPosts []*types.Post, log *logger.Logger) []ParsedRecommendation {
	cleaned := strings.TrimSpace(raw)
	cleaned = stripCodeFence(cleaned)

	// Elements decode individually so one bad entry (say, a numeric
	// post_id) never takes its valid siblings down with it.
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &elements); err != nil {
		// The model sometimes emits a single object instead of an array.
		var single rawRecommendation
		if err2 := json.Unmarshal([]byte(cleaned), &single); err2 != nil {
			if log != nil {
				log.Warn("Failed to parse recommendations", "error", err, "raw", raw)
			}
			return []ParsedRecommendation{}
		}
		return filterRecommendations([]rawRecommendation{single})
	}

	entries := make([]rawRecommendation, 0, len(elements))
	for _, el := range elements {
		var e rawRecommendation
		if err := json.Unmarshal(el, &e); err != nil {
			if log != nil {
				log.Warn("Dropping malformed recommendation entry", "error", err)
			}
			continue
		}
		entries = append(entries, e)
	}
	return filterRecommendations(entries)
}

func filterRecommendations(entries []rawRecommendation) []ParsedRecommendation {
	out := make([]ParsedRecommendation, 0, len(entries))
	for _, e := range entries {
		if e.PostID == "" || e.PostTitle == "" || e.Reason == "" {
			continue
		}
		out = append(out, ParsedRecommendation{
			PostID:     e.PostID,
			PostTitle:  e.PostTitle,
			Reason:     truncateRunes(e.Reason, maxReasonLength),
			Confidence: clampConfidence(e.Confidence),
		})
		if len(out) == maxRecommendations {
			break
		}
	}
	return out
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// clampConfidence coerces the confidence field into [0,1], defaulting to
// 0.5 when absent or non-numeric.
func clampConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0.5
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0.5
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
