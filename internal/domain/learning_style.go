package domain

import "sort"

// Style is one of the supported learning styles.
type Style string

const (
	StyleReading     Style = "reading"
	StyleVisual      Style = "visual"
	StyleKinesthetic Style = "kinesthetic"
)

// Styles lists every style in tie-break order.
var Styles = []Style{StyleReading, StyleVisual, StyleKinesthetic}

// IsValid reports whether s is a supported style.
func (s Style) IsValid() bool {
	switch s {
	case StyleReading, StyleVisual, StyleKinesthetic:
		return true
	}
	return false
}

// StyleBreakdown holds whole percentages per style.
type StyleBreakdown struct {
	Reading     int `json:"reading"`
	Visual      int `json:"visual"`
	Kinesthetic int `json:"kinesthetic"`
}

// Get returns the percentage for s.
func (b StyleBreakdown) Get(s Style) int {
	switch s {
	case StyleReading:
		return b.Reading
	case StyleVisual:
		return b.Visual
	case StyleKinesthetic:
		return b.Kinesthetic
	}
	return 0
}

func (b *StyleBreakdown) set(s Style, v int) {
	switch s {
	case StyleReading:
		b.Reading = v
	case StyleVisual:
		b.Visual = v
	case StyleKinesthetic:
		b.Kinesthetic = v
	}
}

// Total sums the percentages.
func (b StyleBreakdown) Total() int {
	return b.Reading + b.Visual + b.Kinesthetic
}

// LearningStyle is the questionnaire outcome. The zero value means "not yet
// assessed".
type LearningStyle struct {
	Dominant  Style          `json:"dominant,omitempty"`
	Breakdown StyleBreakdown `json:"breakdown"`
}

// Validate accepts the zero value; otherwise the breakdown must sum to 100
// and Dominant must hold the largest share.
func (ls LearningStyle) Validate() error {
	if ls.Dominant == "" && ls.Breakdown.Total() == 0 {
		return nil
	}
	if !ls.Dominant.IsValid() {
		return NewValidationError("learning_style.dominant", "is not a supported style", nil)
	}
	if ls.Breakdown.Total() != 100 {
		return NewValidationError("learning_style.breakdown", "must sum to 100", nil)
	}
	for _, s := range Styles {
		if v := ls.Breakdown.Get(s); v < 0 {
			return NewValidationError("learning_style.breakdown", "cannot be negative", nil)
		}
		if ls.Breakdown.Get(s) > ls.Breakdown.Get(ls.Dominant) {
			return NewValidationError("learning_style.dominant", "must hold the largest share", nil)
		}
	}
	return nil
}

// LearningStyleFromCounts converts raw answer counts into percentages using
// the largest-remainder method so the result always sums to 100. Ties for
// the dominant style resolve in Styles order.
func LearningStyleFromCounts(counts map[Style]int) (LearningStyle, error) {
	total := 0
	for _, s := range Styles {
		if counts[s] < 0 {
			return LearningStyle{}, NewValidationError("answers", "cannot have negative counts", nil)
		}
		total += counts[s]
	}
	if total == 0 {
		return LearningStyle{}, NewValidationError("answers", "at least one answer is required", nil)
	}

	type share struct {
		style     Style
		order     int
		remainder int
	}
	var breakdown StyleBreakdown
	shares := make([]share, 0, len(Styles))
	assigned := 0
	for i, s := range Styles {
		scaled := counts[s] * 100
		breakdown.set(s, scaled/total)
		assigned += scaled / total
		shares = append(shares, share{style: s, order: i, remainder: scaled % total})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].remainder != shares[j].remainder {
			return shares[i].remainder > shares[j].remainder
		}
		return shares[i].order < shares[j].order
	})
	for i := 0; assigned < 100; i++ {
		s := shares[i%len(shares)].style
		breakdown.set(s, breakdown.Get(s)+1)
		assigned++
	}

	dominant := Styles[0]
	for _, s := range Styles[1:] {
		if counts[s] > counts[dominant] {
			dominant = s
		}
	}
	// Rounding can lift a tied style above the dominant one.
	for _, s := range Styles {
		if breakdown.Get(s) > breakdown.Get(dominant) {
			dominant = s
		}
	}

	return LearningStyle{Dominant: dominant, Breakdown: breakdown}, nil
}
