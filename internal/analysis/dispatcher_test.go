package analysis

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"postlens/internal/core"
)

// mockGenerator is a scriptable TextGenerator.
type mockGenerator struct {
	calls     atomic.Int64
	responses map[string]string // matched by prompt substring
	fallback  string
	delay     time.Duration
	err       error
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	for marker, response := range m.responses {
		if strings.Contains(prompt, marker) {
			return response, nil
		}
	}
	return m.fallback, nil
}

func (m *mockGenerator) ModelName() string { return "mock-model" }

var validResponses = map[string]string{
	"topic clusters":    `{"topics":[{"name":"AI","share":0.6,"keywords":["ml"]},{"name":"Career","share":0.4}]}`,
	"brand strategist":  `{"archetype":"Builder","strengths":["depth"],"differentiators":["ships"],"summary":"Hands-on builder voice."}`,
	"quality reviewer":  `{"overall_score":7.5,"dimensions":[{"name":"hook strength","score":7,"comment":"solid"}]}`,
	"narrative insight": `{"headline":"A year of shipping","story":"Posts grew steadily.","suggestions":["post weekly"]}`,
}

func testPosts() core.PostSet {
	return core.PostSet{{
		ID:          "p1",
		Timestamp:   time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		Text:        "hello world",
		Reactions:   3,
		MonthBucket: "2025-01",
	}}
}

func TestAnalyze_EmptyPostSetFailsFast(t *testing.T) {
	gen := &mockGenerator{fallback: "{}"}
	d := NewDispatcher(gen, time.Second)

	result := d.Analyze(context.Background(), core.KindTopics, core.PostSet{})

	if result.Status != core.StatusFailed {
		t.Fatalf("Expected failed status, got %s", result.Status)
	}
	if result.ErrorKind != core.ErrValidation {
		t.Errorf("Expected validation error kind, got %s", result.ErrorKind)
	}
	if gen.calls.Load() != 0 {
		t.Errorf("Expected no external call, got %d", gen.calls.Load())
	}
}

func TestAnalyze_UnknownKind(t *testing.T) {
	gen := &mockGenerator{fallback: "{}"}
	d := NewDispatcher(gen, time.Second)

	result := d.Analyze(context.Background(), core.AnalysisKind("bogus"), testPosts())

	if result.ErrorKind != core.ErrValidation {
		t.Errorf("Expected validation error kind, got %s", result.ErrorKind)
	}
	if gen.calls.Load() != 0 {
		t.Errorf("Expected no external call, got %d", gen.calls.Load())
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	gen := &mockGenerator{fallback: "{}", delay: 200 * time.Millisecond}
	d := NewDispatcher(gen, 20*time.Millisecond)

	result := d.Analyze(context.Background(), core.KindTopics, testPosts())

	if result.Status != core.StatusFailed {
		t.Fatalf("Expected failed status, got %s", result.Status)
	}
	if result.ErrorKind != core.ErrTimeout {
		t.Errorf("Expected timeout error kind, got %s", result.ErrorKind)
	}
	if result.Payload != nil {
		t.Error("Expected no payload on timeout")
	}
}

func TestAnalyze_TransportError(t *testing.T) {
	gen := &mockGenerator{err: errors.New("connection reset by peer")}
	d := NewDispatcher(gen, time.Second)

	result := d.Analyze(context.Background(), core.KindTopics, testPosts())

	if result.Status != core.StatusFailed {
		t.Fatalf("Expected failed status, got %s", result.Status)
	}
	if result.ErrorKind != core.ErrMalformedResponse {
		t.Errorf("Expected malformed_response kind, got %s", result.ErrorKind)
	}
	if !strings.Contains(result.Error, "external call failed") {
		t.Errorf("Expected transport failure detail, got %q", result.Error)
	}
}

func TestAnalyze_MalformedResponse(t *testing.T) {
	gen := &mockGenerator{fallback: "I could not produce JSON today, sorry."}
	d := NewDispatcher(gen, time.Second)

	result := d.Analyze(context.Background(), core.KindEvaluation, testPosts())

	if result.Status != core.StatusFailed {
		t.Fatalf("Expected failed status, got %s", result.Status)
	}
	if result.ErrorKind != core.ErrMalformedResponse {
		t.Errorf("Expected malformed_response error kind, got %s", result.ErrorKind)
	}
	// The raw text must not leak through as if it were a valid payload.
	if result.Payload != nil {
		t.Error("Expected no payload for malformed response")
	}
}

func TestAnalyze_PartialPayloadIsMalformed(t *testing.T) {
	// Valid JSON but missing required fields.
	gen := &mockGenerator{fallback: `{"overall_score": 5}`}
	d := NewDispatcher(gen, time.Second)

	result := d.Analyze(context.Background(), core.KindEvaluation, testPosts())

	if result.ErrorKind != core.ErrMalformedResponse {
		t.Errorf("Expected malformed_response for partial payload, got %s", result.ErrorKind)
	}
}

func TestAnalyze_Success(t *testing.T) {
	gen := &mockGenerator{responses: validResponses}
	d := NewDispatcher(gen, time.Second)

	result := d.Analyze(context.Background(), core.KindPositioning, testPosts())

	if result.Status != core.StatusOK {
		t.Fatalf("Expected ok status, got %s (%s)", result.Status, result.Error)
	}
	if result.ModelUsed != "mock-model" {
		t.Errorf("Expected model recorded, got %q", result.ModelUsed)
	}
	if len(result.Payload) == 0 {
		t.Error("Expected payload present")
	}
}

func TestRun_OneTimeoutDoesNotBlockOthers(t *testing.T) {
	// The topics prompt stalls past the deadline; the others answer fast.
	gen := &slowTopicsGenerator{inner: &mockGenerator{responses: validResponses}}
	d := NewDispatcher(gen, 50*time.Millisecond)

	results := d.Run(context.Background(), testPosts(), nil)

	if len(results) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(results))
	}
	if results[core.KindTopics].ErrorKind != core.ErrTimeout {
		t.Errorf("Expected topics timeout, got %+v", results[core.KindTopics])
	}
	for _, kind := range []core.AnalysisKind{core.KindPositioning, core.KindEvaluation, core.KindNarrative} {
		if results[kind].Status != core.StatusOK {
			t.Errorf("Expected %s ok despite topics timing out, got %+v", kind, results[kind])
		}
	}
}

// slowTopicsGenerator stalls only the topics prompt.
type slowTopicsGenerator struct {
	inner *mockGenerator
}

func (g *slowTopicsGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "topic clusters") {
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.inner.Generate(ctx, prompt)
}

func (g *slowTopicsGenerator) ModelName() string { return g.inner.ModelName() }

func TestRun_SubsetOfKinds(t *testing.T) {
	gen := &mockGenerator{responses: validResponses}
	d := NewDispatcher(gen, time.Second)

	results := d.Run(context.Background(), testPosts(), []core.AnalysisKind{core.KindNarrative})

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[core.KindNarrative].Status != core.StatusOK {
		t.Errorf("Expected narrative ok, got %+v", results[core.KindNarrative])
	}
}
