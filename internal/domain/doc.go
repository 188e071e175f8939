// Package domain contains the learner-facing entities (users, profiles,
// curricula and their modules, lessons and sections, quizzes) together with
// their validation rules. It has no knowledge of storage or transport.
package domain
