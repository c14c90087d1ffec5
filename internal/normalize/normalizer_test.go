package normalize

import (
	"reflect"
	"strings"
	"testing"

	"postlens/internal/core"
)

var testOpts = Options{Author: "Ada Lovelace"}

func TestReadRows_HeaderKeyed(t *testing.T) {
	csv := "Date,Text,Likes\n2025-01-05,hello,3\n"
	rows, err := ReadRows(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0]["date"] != "2025-01-05" {
		t.Errorf("Expected lowercased header keys, got %v", rows[0])
	}
}

func TestReadRows_EmptyInput(t *testing.T) {
	_, err := ReadRows(strings.NewReader("Date,Text\n"))
	if err == nil {
		t.Fatal("Expected error for CSV without data rows")
	}
	if !core.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestNormalize_DropsRowsWithoutTimestamp(t *testing.T) {
	rows := []Row{
		{"date": "2025-01-05", "text": "kept"},
		{"date": "not a date", "text": "dropped"},
		{"text": "also dropped"},
	}

	posts, err := Normalize(rows, testOpts)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("Expected 1 post, got %d", len(posts))
	}
	if posts[0].Text != "kept" {
		t.Errorf("Expected surviving post 'kept', got %q", posts[0].Text)
	}
}

func TestNormalize_MissingCountersDefaultToZero(t *testing.T) {
	rows := []Row{{"date": "2025-01-05", "text": "hi"}}

	posts, err := Normalize(rows, testOpts)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	p := posts[0]
	if p.Reactions != 0 || p.Comments != 0 || p.Shares != 0 {
		t.Errorf("Expected zeroed counters, got %+v", p)
	}
}

func TestNormalize_CleansText(t *testing.T) {
	rows := []Row{{
		"date": "2025-01-05",
		"text": "  <p>Ship &amp; iterate</p>  ",
	}}

	posts, err := Normalize(rows, testOpts)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if posts[0].Text != "Ship & iterate" {
		t.Errorf("Expected cleaned text, got %q", posts[0].Text)
	}
}

func TestNormalize_ReshareMarker(t *testing.T) {
	rows := []Row{
		{"date": "2025-01-05", "text": "a", "sharedurl": "https://example.com/original"},
		{"date": "2025-01-06", "text": "b", "is_reshare": "false"},
		{"date": "2025-01-07", "text": "c"},
	}

	posts, err := Normalize(rows, testOpts)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !posts[0].IsReshare {
		t.Error("Expected reshare-marker row to be flagged")
	}
	if posts[1].IsReshare || posts[2].IsReshare {
		t.Error("Expected unmarked rows to stay original")
	}
}

func TestNormalize_ReshareAuthorMismatch(t *testing.T) {
	rows := []Row{
		{"date": "2025-01-05", "text": "a", "author": "Someone Else"},
		{"date": "2025-01-06", "text": "b", "author": "ada lovelace"},
	}

	posts, err := Normalize(rows, testOpts)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !posts[0].IsReshare {
		t.Error("Expected author mismatch to flag reshare")
	}
	if posts[1].IsReshare {
		t.Error("Expected case-insensitive author match to stay original")
	}
}

func TestNormalize_MonthBucket(t *testing.T) {
	rows := []Row{{"date": "2025-03-15 09:30:00", "text": "x", "id": "post-1"}}

	posts, err := Normalize(rows, testOpts)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if posts[0].MonthBucket != "2025-03" {
		t.Errorf("Expected month bucket 2025-03, got %q", posts[0].MonthBucket)
	}
	if posts[0].ID != "post-1" {
		t.Errorf("Expected row id preserved, got %q", posts[0].ID)
	}
}

func TestNormalize_EmptyInputFails(t *testing.T) {
	_, err := Normalize(nil, testOpts)
	if err == nil {
		t.Fatal("Expected error for empty input")
	}
	if !core.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	// The second and third rows carry no id column; their fallback ids
	// must be stable across runs too.
	rows := []Row{
		{"date": "2025-01-05", "text": "a", "likes": "3", "id": "p1"},
		{"date": "2025-02-06", "text": "b", "comments": "2"},
		{"date": "2025-03-07", "text": "c"},
	}

	first, err := Normalize(rows, testOpts)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	second, err := Normalize(rows, testOpts)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical PostSets for identical input")
	}
}

func TestNormalize_FallbackIDIsStable(t *testing.T) {
	rows := []Row{
		{"date": "2025-01-05", "text": "no id here"},
		{"date": "2025-01-05", "text": "different text"},
	}

	first, err := Normalize(rows, testOpts)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	second, err := Normalize(rows, testOpts)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if first[0].ID == "" {
		t.Fatal("Expected a fallback id")
	}
	if first[0].ID != second[0].ID {
		t.Errorf("Expected stable fallback id, got %q then %q", first[0].ID, second[0].ID)
	}
	if first[0].ID == first[1].ID {
		t.Error("Expected distinct ids for rows with different text")
	}
}
