// Package api exposes the LearnFlex use cases over HTTP under /api.
//
// Handlers depend on small consumer-side interfaces rather than concrete
// services, decode and validate request DTOs, and translate service errors
// into status codes and safe messages (see MapErrorToStatusCode and
// GetSafeErrorMessage). Quiz and questionnaire flows are served as
// server-side sessions: each action returns the session snapshot together
// with the one-shot events (navigate, snackbar) it produced.
package api
