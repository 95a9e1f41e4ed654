package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/faxmishok/passave-server/internal/token"
)

// RouterDeps agrupa todo lo que el router necesita cablear.
type RouterDeps struct {
	Auth   *AuthHandler
	Tokens *token.Service
}

// NewRouter arma el chi mux completo: middlewares globales, rutas públicas
// de auth, rutas protegidas y los endpoints operativos.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(WithRequestID)
	r.Use(WithLogging)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	deps.Auth.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(Protect(deps.Tokens, deps.Auth.Cookie.Name))
		me := &MeHandler{Store: deps.Auth.Store}
		r.Get("/me", me.ServeHTTP)
		r.Put("/me/profile-image", me.UpdateProfileImage)
	})

	return r
}
