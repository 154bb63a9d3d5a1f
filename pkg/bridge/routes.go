package bridge

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// handlerFunc is a request handler whose error is rendered by the service.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Service) routes(httpLog *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(httpLog))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", s.handle(s.health))
	r.Get("/me", s.handle(s.me))

	r.Route("/chats", func(r chi.Router) {
		r.Get("/", s.handle(s.listChats))

		r.Route("/{chatID}", func(r chi.Router) {
			r.Get("/", s.handle(s.getChat))
			r.Get("/history", s.handle(s.history))
			r.Get("/search", s.handle(s.searchMessages))
			r.Post("/files", s.handle(s.sendFile))
			r.Post("/read", s.handle(s.markRead))

			r.Route("/messages", func(r chi.Router) {
				r.Get("/", s.handle(s.listMessages))
				r.Post("/", s.handle(s.sendMessage))

				r.Route("/{messageID}", func(r chi.Router) {
					r.Put("/", s.handle(s.editMessage))
					r.Delete("/", s.handle(s.deleteMessage))
					r.Post("/reaction", s.handle(s.sendReaction))
					r.Post("/reply", s.handle(s.reply))
					r.Post("/forward", s.handle(s.forward))
					r.Post("/pin", s.handle(s.pin))
				})
			})
		})
	})

	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", s.handle(s.listContacts))
		r.Get("/search", s.handle(s.searchContacts))
	})

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/status", s.handle(s.userStatus))
		r.Get("/photos", s.handle(s.userPhotos))
	})

	r.Get("/gifs/search", s.handle(s.searchGIFs))

	return r
}

// handle renders any error returned by h through the shared error boundary.
func (s *Service) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

// requestLogger logs one line per request with its outcome and latency.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()

			defer func() {
				log.Info("Request served",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(started),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
