package session

import (
	"errors"
	"fmt"
)

// ActionType names a step a learner can take.
type ActionType string

const (
	ActionSelectAnswer ActionType = "select_answer"
	ActionNext         ActionType = "next"
	ActionPrevious     ActionType = "previous"
	ActionSubmit       ActionType = "submit"
	ActionRetry        ActionType = "retry"
)

// Action is a learner input. Index and Choice are used by select_answer.
type Action struct {
	Type   ActionType `json:"type"`
	Index  int        `json:"index"`
	Choice int        `json:"choice"`
}

var (
	// ErrUnknownAction is returned for actions a flow does not support.
	ErrUnknownAction = errors.New("unknown action")

	// ErrAlreadySubmitted is returned for changes after submission.
	ErrAlreadySubmitted = errors.New("already submitted")
)

func unknownAction(t ActionType) error {
	return Userf(fmt.Errorf("%w: %q", ErrUnknownAction, t), "That action is not available here.")
}

// selectAnswer returns a copy of answers with answers[index] = choice after
// bounds checks against the number of options.
func selectAnswer(answers []int, index, choice, options int) ([]int, error) {
	if index < 0 || index >= len(answers) {
		return nil, Userf(fmt.Errorf("question %d out of range", index), "That question does not exist.")
	}
	if choice < 0 || choice >= options {
		return nil, Userf(fmt.Errorf("choice %d out of range", choice), "Please pick one of the listed options.")
	}
	out := append([]int(nil), answers...)
	out[index] = choice
	return out, nil
}

func step(current, delta, count int) int {
	return max(0, min(count-1, current+delta))
}

func unanswered(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = -1
	}
	return out
}
