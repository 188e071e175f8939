package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers groups every API handler for route registration.
type Handlers struct {
	Auth      *AuthHandler
	Profile   *ProfileHandler
	Sessions  *SessionHandler
	Library   *LibraryHandler
	Dashboard *DashboardHandler
	Sync      *SyncHandler
	Health    *HealthHandler
}

// Mount registers the /api routes on r. authenticate guards every route
// except registration, login, refresh and health.
func (h Handlers) Mount(r chi.Router, authenticate func(http.Handler) http.Handler) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/refresh", h.Auth.RefreshToken)
		r.Get("/health", h.Health.Health)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Put("/account/email", h.Auth.ChangeEmail)
			r.Put("/account/password", h.Auth.ChangePassword)
			r.Delete("/account", h.Auth.DeleteAccount)

			r.Route("/profile", func(r chi.Router) {
				r.Post("/", h.Profile.CreateProfile)
				r.Get("/", h.Profile.GetProfile)
				r.Delete("/", h.Profile.DeleteProfile)
				r.Patch("/username", h.Profile.UpdateUsername)
				r.Patch("/preferences", h.Profile.UpdatePreferences)
				r.Post("/photo/upload-url", h.Profile.RequestPhotoUpload)
				r.Post("/photo", h.Profile.ConfirmPhoto)
			})

			r.Get("/style/questions", h.Sessions.Questions)
			r.Post("/sessions/questionnaire", h.Sessions.StartQuestionnaire)
			r.Post("/sessions/quiz", h.Sessions.StartQuiz)
			r.Get("/sessions/{id}", h.Sessions.GetSession)
			r.Post("/sessions/{id}/actions", h.Sessions.Dispatch)

			r.Get("/dashboard", h.Dashboard.Dashboard)
			r.Get("/reports/progress", h.Dashboard.ProgressReport)

			r.Post("/curricula/generate", h.Library.GenerateCurriculum)
			r.Post("/curricula", h.Library.SaveCurriculum)
			r.Get("/curricula", h.Library.ListCurricula)
			r.Route("/curricula/{cid}", func(r chi.Router) {
				r.Get("/", h.Library.GetCurriculum)
				r.Delete("/", h.Library.DeleteCurriculum)
				r.Get("/bundle", h.Library.GetBundle)
				r.Post("/modules/generate", h.Library.GenerateModules)
				r.Get("/modules", h.Library.ListModules)
				r.Route("/modules/{mid}", func(r chi.Router) {
					r.Get("/", h.Library.GetModule)
					r.Post("/lessons/generate", h.Library.GenerateLessons)
					r.Get("/lessons", h.Library.ListLessons)
					r.Route("/lessons/{lid}", func(r chi.Router) {
						r.Get("/", h.Library.GetLesson)
						r.Post("/sections/generate", h.Library.GenerateSections)
						r.Get("/sections", h.Library.ListSections)
						r.Get("/sections/{sid}", h.Library.GetSection)
					})
				})
			})

			r.Get("/tasks/{id}", h.Library.GetTask)

			r.Post("/sync", h.Sync.Apply)
			r.Get("/sync/status", h.Sync.Status)
			r.Get("/sync/stream", h.Sync.Stream)
		})
	})
}
