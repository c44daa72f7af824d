package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const floatTolerance = 1e-9

func TestRecallAtK(t *testing.T) {
	tests := []struct {
		name      string
		expected  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"all expected in top k", []string{"jay-2025", "mayday-khh"}, []string{"mayday-khh", "jay-2025", "langlang"}, 10, 1},
		{"half found", []string{"jay-2025", "mayday-khh"}, []string{"jay-2025", "langlang"}, 10, 0.5},
		{"nothing retrieved", []string{"jay-2025"}, nil, 10, 0},
		{"no expectation", nil, []string{"jay-2025"}, 10, 0},
		{"cut at k", []string{"a", "b", "c"}, []string{"a", "b", "x", "y", "c"}, 3, 2.0 / 3.0},
		{"duplicate retrieval counts once", []string{"a", "b"}, []string{"a", "a", "a"}, 10, 0.5},
		{"duplicate expectation counts once", []string{"a", "a"}, []string{"a"}, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RecallAtK(tt.expected, tt.retrieved, tt.k), floatTolerance)
		})
	}
}

func TestMRRAtK(t *testing.T) {
	tests := []struct {
		name      string
		expected  []string
		retrieved []string
		want      float64
	}{
		{"first result", []string{"jay-2025"}, []string{"jay-2025", "langlang"}, 1},
		{"third result", []string{"jay-2025"}, []string{"x", "y", "jay-2025"}, 1.0 / 3.0},
		{"earliest expected wins", []string{"a", "b", "c"}, []string{"x", "b", "a", "c"}, 0.5},
		{"beyond k", []string{"a"}, []string{"x", "y", "z", "w", "v", "u", "t", "s", "r", "q", "a"}, 0},
		{"no expectation", nil, []string{"a"}, 0},
		{"nothing retrieved", []string{"a"}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MRRAtK(tt.expected, tt.retrieved, evalK), floatTolerance)
		})
	}
}

func TestScore_EmptyExpectation(t *testing.T) {
	recall, mrr := Score(nil, nil, evalK)
	assert.Equal(t, 1.0, recall)
	assert.Equal(t, 1.0, mrr)

	recall, mrr = Score(nil, []string{"delisted-event"}, evalK)
	assert.Zero(t, recall)
	assert.Zero(t, mrr)

	recall, mrr = Score([]string{"jay-2025"}, []string{"langlang", "jay-2025"}, evalK)
	assert.Equal(t, 1.0, recall)
	assert.Equal(t, 0.5, mrr)
}
