package services

import (
	"strings"
	"testing"
)

func TestParseRecommendations_PlainArray(t *testing.T) {
	raw := `[
	  {"post_id": "p1", "post_title": "t1", "reason": "r1", "confidence": 0.8},
	  {"post_id": "p2", "post_title": "t2", "reason": "r2", "confidence": 0.6}
	]`
	out := parseRecommendations(raw, nil, nil)
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out[0].PostID != "p1" || out[0].Confidence != 0.8 {
		t.Fatalf("unexpected first entry: %+v", out[0])
	}
}

func TestParseRecommendations_StripsCodeFence(t *testing.T) {
	raw := "```json\n[{\"post_id\": \"p1\", \"post_title\": \"t\", \"reason\": \"r\", \"confidence\": 0.5}]\n```"
	out := parseRecommendations(raw, nil, nil)
	if len(out) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out))
	}
}

func TestParseRecommendations_SingleObjectCoerced(t *testing.T) {
	raw := `{"post_id": "p1", "post_title": "t", "reason": "r", "confidence": 0.9}`
	out := parseRecommendations(raw, nil, nil)
	if len(out) != 1 {
		t.Fatalf("expected single object to be wrapped, got %d entries", len(out))
	}
}

func TestParseRecommendations_MalformedYieldsEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "not json at all", "{broken", "42"} {
		out := parseRecommendations(raw, nil, nil)
		if len(out) != 0 {
			t.Fatalf("input %q: expected empty slice, got %d entries", raw, len(out))
		}
	}
}

func TestParseRecommendations_KeepsValidSiblingsOfMistypedEntries(t *testing.T) {
	// Models sometimes emit a numeric post_id; that entry is dropped but
	// its well-formed siblings survive.
	raw := `[
	  {"post_id": 123, "post_title": "t0", "reason": "r0", "confidence": 0.7},
	  {"post_id": "p1", "post_title": "t1", "reason": "r1", "confidence": 0.9},
	  {"post_id": "p2", "post_title": 42, "reason": "r2"},
	  {"post_id": "p3", "post_title": "t3", "reason": "r3"}
	]`
	out := parseRecommendations(raw, nil, nil)
	if len(out) != 2 {
		t.Fatalf("expected 2 surviving entries, got %d: %+v", len(out), out)
	}
	if out[0].PostID != "p1" || out[1].PostID != "p3" {
		t.Fatalf("wrong survivors: %+v", out)
	}
}

func TestParseRecommendations_DropsIncompleteEntries(t *testing.T) {
	raw := `[
	  {"post_id": "", "post_title": "t", "reason": "r"},
	  {"post_id": "p", "post_title": "", "reason": "r"},
	  {"post_id": "p", "post_title": "t", "reason": ""},
	  {"post_id": "ok", "post_title": "t", "reason": "r"}
	]`
	out := parseRecommendations(raw, nil, nil)
	if len(out) != 1 || out[0].PostID != "ok" {
		t.Fatalf("expected only complete entry to survive, got %+v", out)
	}
}

func TestParseRecommendations_CapsAtThree(t *testing.T) {
	raw := `[
	  {"post_id": "1", "post_title": "t", "reason": "r"},
	  {"post_id": "2", "post_title": "t", "reason": "r"},
	  {"post_id": "3", "post_title": "t", "reason": "r"},
	  {"post_id": "4", "post_title": "t", "reason": "r"},
	  {"post_id": "5", "post_title": "t", "reason": "r"}
	]`
	out := parseRecommendations(raw, nil, nil)
	if len(out) != maxRecommendations {
		t.Fatalf("expected %d entries, got %d", maxRecommendations, len(out))
	}
}

func TestParseRecommendations_TruncatesLongReason(t *testing.T) {
	longReason := strings.Repeat("好", 150)
	raw := `[{"post_id": "p", "post_title": "t", "reason": "` + longReason + `"}]`
	out := parseRecommendations(raw, nil, nil)
	if len(out) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out))
	}
	if got := len([]rune(out[0].Reason)); got != maxReasonLength {
		t.Fatalf("expected reason truncated to %d runes, got %d", maxReasonLength, got)
	}
}

func TestClampConfidence(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"", 0.5},
		{`"high"`, 0.5},
		{"1.4", 1},
		{"-0.3", 0},
		{"0", 0},
		{"0.85", 0.85},
	}
	for _, tc := range cases {
		var raw []byte
		if tc.raw != "" {
			raw = []byte(tc.raw)
		}
		if got := clampConfidence(raw); got != tc.want {
			t.Fatalf("clampConfidence(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
