package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/knowledge"
)

func TestLoadGoldenQueries_ValidFile(t *testing.T) {
	content := `[
		{"id": "q1", "query": "五月天", "query_type": "artist", "expected_event_ids": ["mayday-kh-2026", "mayday-tp-2026"], "difficulty": "easy"},
		{"id": "q2", "query": "音樂劇", "query_type": "category", "expected_event_ids": ["phantom-2026"], "difficulty": "easy"}
	]`
	path := writeTempFile(t, content)

	queries, err := LoadGoldenQueries(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(queries))
	}
	if queries[0].ID != "q1" {
		t.Errorf("expected id q1, got %s", queries[0].ID)
	}
	if queries[0].QueryType != entities.QueryTypeArtist {
		t.Errorf("expected query type artist, got %s", queries[0].QueryType)
	}
	if len(queries[0].ExpectedEventIDs) != 2 {
		t.Errorf("expected 2 event ids, got %d", len(queries[0].ExpectedEventIDs))
	}
	if queries[1].Query != "音樂劇" {
		t.Errorf("expected query '音樂劇', got %s", queries[1].Query)
	}
}

func TestLoadGoldenQueries_InvalidFile(t *testing.T) {
	_, err := LoadGoldenQueries("/nonexistent/path.json")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadGoldenQueries_InvalidJSON(t *testing.T) {
	path := writeTempFile(t, `not valid json`)
	_, err := LoadGoldenQueries(path)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadGoldenQueries_EmptyArray(t *testing.T) {
	path := writeTempFile(t, `[]`)
	queries, err := LoadGoldenQueries(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queries) != 0 {
		t.Errorf("expected 0 queries, got %d", len(queries))
	}
}

func TestValidateGoldenQueries_QueryTypes(t *testing.T) {
	tests := []struct {
		queryType entities.QueryType
		valid     bool
	}{
		{entities.QueryTypeArtist, true},
		{entities.QueryTypeVenue, true},
		{entities.QueryTypeCategory, true},
		{entities.QueryTypeDate, true},
		{entities.QueryTypeGeneral, true},
		{entities.QueryTypeMixed, true},
		{entities.QueryTypeFollowUp, false},
		{entities.QueryType("unknown"), false},
		{entities.QueryType(""), false},
	}
	for _, tt := range tests {
		err := ValidateGoldenQueries([]GoldenQuery{{ID: "q1", Query: "test", QueryType: tt.queryType, Difficulty: "easy"}})
		if (err == nil) != tt.valid {
			t.Errorf("query type %q: valid = %v, want %v (err %v)", tt.queryType, err == nil, tt.valid, err)
		}
	}
}

func TestValidateGoldenQueries_MissingID(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "", Query: "test", QueryType: entities.QueryTypeArtist, Difficulty: "easy"},
	}
	err := ValidateGoldenQueries(queries)
	if err == nil {
		t.Error("expected validation error for missing ID")
	}
}

func TestValidateGoldenQueries_MissingQuery(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "q1", Query: "", QueryType: entities.QueryTypeArtist, Difficulty: "easy"},
	}
	err := ValidateGoldenQueries(queries)
	if err == nil {
		t.Error("expected validation error for missing query")
	}
}

func TestValidateGoldenQueries_InvalidDifficulty(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "q1", Query: "test", QueryType: entities.QueryTypeArtist, Difficulty: "impossible"},
	}
	err := ValidateGoldenQueries(queries)
	if err == nil {
		t.Error("expected validation error for invalid difficulty")
	}
}

func TestValidateGoldenQueries_EmptyEventID(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "q1", Query: "test", QueryType: entities.QueryTypeArtist, ExpectedEventIDs: []string{""}, Difficulty: "easy"},
	}
	err := ValidateGoldenQueries(queries)
	if err == nil {
		t.Error("expected validation error for empty event id")
	}
}

func TestValidateGoldenQueries_DuplicateIDs(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "q1", Query: "五月天", QueryType: entities.QueryTypeArtist, Difficulty: "easy"},
		{ID: "q1", Query: "郎朗", QueryType: entities.QueryTypeArtist, Difficulty: "easy"},
	}
	err := ValidateGoldenQueries(queries)
	if err == nil {
		t.Error("expected validation error for duplicate IDs")
	}
}

func TestValidateGoldenQueries_Valid(t *testing.T) {
	queries := []GoldenQuery{
		{ID: "q1", Query: "五月天", QueryType: entities.QueryTypeArtist, ExpectedEventIDs: []string{"mayday-tp-2026"}, Difficulty: "easy"},
		{ID: "q2", Query: "Coldplay", QueryType: entities.QueryTypeArtist, Difficulty: "medium"},
	}
	err := ValidateGoldenQueries(queries)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDefaultGoldenQueries_MatchSampleCorpus(t *testing.T) {
	queries, err := DefaultGoldenQueries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateGoldenQueries(queries); err != nil {
		t.Fatalf("embedded golden set is invalid: %v", err)
	}

	events, err := knowledge.SampleEvents()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kb := knowledge.Default()
	listed := make(map[string]bool, len(events))
	for _, e := range events {
		listed[e.EventID] = !kb.IsDelisted(e)
	}
	for _, q := range queries {
		for _, id := range q.ExpectedEventIDs {
			if !listed[id] {
				t.Errorf("query %q expects %q, which is not a listed sample event", q.ID, id)
			}
		}
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
