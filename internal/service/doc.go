// Package service contains the LearnFlex use cases. Each service method is a
// single operation over the document repositories (defined in internal/store),
// the user store or the content generator, and returns (T, error).
//
// Services:
//
//   - AuthService: registration, login, token refresh, credential changes and
//     account deletion.
//   - ProfileService: the learner profile, including photo uploads through a
//     PhotoPresigner.
//   - QuestionnaireService: the learning-style questionnaire, generated or
//     taken from the embedded bank.
//   - LibraryService: curricula and their modules, lessons and sections.
//     Child generation is queued as a background task through the event
//     emitter; LibraryService also implements task.ContentGenerator.
//   - QuizService: quiz generation, grading and score recording.
//   - DashboardService: aggregated progress and the XLSX progress report.
//
// Multi-document writes run inside store.RunInTransaction with repositories
// bound through WithTx. Errors are wrapped in ServiceError; store sentinels
// are translated to the sentinels in errors.go so the API layer can map them
// to status codes with errors.Is.
package service
