package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	messagehandlers "github.com/GlebRadaev/courierstats/internal/handlers/messages"
	statshandlers "github.com/GlebRadaev/courierstats/internal/handlers/stats"
	"github.com/GlebRadaev/courierstats/internal/service"
	"github.com/GlebRadaev/courierstats/pkg/auth"
)

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers

type StatsHandler interface {
	GetStats(w http.ResponseWriter, r *http.Request)
}

type MessageHandler interface {
	PostMessage(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	StatsHandler   StatsHandler
	MessageHandler MessageHandler
	validator      auth.TokenValidator
}

// New builds the HTTP handlers. The message webhook is only mounted when
// validator is not nil.
func New(s *service.Services, validator auth.TokenValidator) *Handlers {
	return &Handlers{
		StatsHandler:   statshandlers.New(s.StatsService),
		MessageHandler: messagehandlers.New(s.DeliveryService),
		validator:      validator,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.StatsHandler.GetStats)

		if h.validator != nil {
			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(h.validator))
				r.Post("/messages", h.MessageHandler.PostMessage)
			})
		}
	})

	return r
}
