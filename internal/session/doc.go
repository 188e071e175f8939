// Package session holds server-side view models for multi-step flows such as
// taking a quiz or answering the learning-style questionnaire.
//
// A Session owns its state and changes it only through a reducer, one action
// at a time. Reducers never touch HTTP; they return the next state and emit
// one-shot events (navigation, snackbars) that the client drains after each
// action. A reducer error leaves the state as it was and queues a snackbar
// carrying a user-facing message.
package session
