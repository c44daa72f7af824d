package evaluation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed golden_queries.json
var defaultGoldenQueries []byte

// DefaultGoldenQueries returns the golden set labeled against the bundled
// sample event corpus.
func DefaultGoldenQueries() ([]GoldenQuery, error) {
	return ParseGoldenQueries(defaultGoldenQueries)
}

// LoadGoldenQueries reads and parses a golden query set from a JSON file.
func LoadGoldenQueries(path string) ([]GoldenQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden queries file: %w", err)
	}
	return ParseGoldenQueries(data)
}

func ParseGoldenQueries(data []byte) ([]GoldenQuery, error) {
	var queries []GoldenQuery
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("failed to parse golden queries: %w", err)
	}
	return queries, nil
}

var validDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

// ValidateGoldenQueries checks that all golden queries have required fields and valid values.
func ValidateGoldenQueries(queries []GoldenQuery) error {
	seen := make(map[string]struct{}, len(queries))

	for i, q := range queries {
		if q.ID == "" {
			return fmt.Errorf("query at index %d: missing id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("query at index %d: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}

		if q.Query == "" {
			return fmt.Errorf("query %q: missing query text", q.ID)
		}
		if !validQueryTypes[q.QueryType] {
			return fmt.Errorf("query %q: invalid query type %q", q.ID, q.QueryType)
		}
		if !validDifficulties[q.Difficulty] {
			return fmt.Errorf("query %q: invalid difficulty %q (must be easy/medium/hard)", q.ID, q.Difficulty)
		}
		for _, id := range q.ExpectedEventIDs {
			if id == "" {
				return fmt.Errorf("query %q: empty expected event id", q.ID)
			}
		}
	}

	return nil
}
