package domain

import (
	"errors"
	"testing"
)

func TestLearningStyleFromCounts(t *testing.T) {
	tests := []struct {
		name      string
		counts    map[Style]int
		dominant  Style
		breakdown StyleBreakdown
	}{
		{
			name:      "single style",
			counts:    map[Style]int{StyleVisual: 5},
			dominant:  StyleVisual,
			breakdown: StyleBreakdown{Visual: 100},
		},
		{
			name:      "even three-way split favours reading",
			counts:    map[Style]int{StyleReading: 1, StyleVisual: 1, StyleKinesthetic: 1},
			dominant:  StyleReading,
			breakdown: StyleBreakdown{Reading: 34, Visual: 33, Kinesthetic: 33},
		},
		{
			name:      "tie between visual and kinesthetic",
			counts:    map[Style]int{StyleVisual: 2, StyleKinesthetic: 2},
			dominant:  StyleVisual,
			breakdown: StyleBreakdown{Visual: 50, Kinesthetic: 50},
		},
		{
			name:      "clear majority",
			counts:    map[Style]int{StyleReading: 1, StyleVisual: 2, StyleKinesthetic: 7},
			dominant:  StyleKinesthetic,
			breakdown: StyleBreakdown{Reading: 10, Visual: 20, Kinesthetic: 70},
		},
		{
			name:      "uneven thirds",
			counts:    map[Style]int{StyleReading: 2, StyleVisual: 2, StyleKinesthetic: 3},
			dominant:  StyleKinesthetic,
			breakdown: StyleBreakdown{Reading: 29, Visual: 28, Kinesthetic: 43},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LearningStyleFromCounts(tt.counts)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got.Breakdown.Total() != 100 {
				t.Errorf("Expected breakdown to sum to 100, got %d", got.Breakdown.Total())
			}
			if got.Dominant != tt.dominant {
				t.Errorf("Expected dominant %s, got %s", tt.dominant, got.Dominant)
			}
			if got.Breakdown != tt.breakdown {
				t.Errorf("Expected breakdown %+v, got %+v", tt.breakdown, got.Breakdown)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("Expected computed style to validate, got %v", err)
			}
		})
	}
}

func TestLearningStyleFromCountsRejectsEmpty(t *testing.T) {
	if _, err := LearningStyleFromCounts(map[Style]int{}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if _, err := LearningStyleFromCounts(map[Style]int{StyleVisual: -1, StyleReading: 2}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for negative count, got %v", err)
	}
}

func TestLearningStyleValidate(t *testing.T) {
	if err := (LearningStyle{}).Validate(); err != nil {
		t.Errorf("Expected zero value to be valid, got %v", err)
	}
	bad := LearningStyle{Dominant: StyleReading, Breakdown: StyleBreakdown{Reading: 40, Visual: 40}}
	if err := bad.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected sum error, got %v", err)
	}
	wrongDominant := LearningStyle{Dominant: StyleReading, Breakdown: StyleBreakdown{Reading: 20, Visual: 80}}
	if err := wrongDominant.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected dominant error, got %v", err)
	}
}
