// Package generation defines the boundary between the learning services and
// the language model that writes curricula, modules, lessons, sections,
// quizzes and style questionnaires. Responses are JSON documents validated
// against an embedded schema per Kind before they reach a caller.
package generation
