package httpapi

import (
	"context"
	"net/http"

	"github.com/MrEthical07/phoneauth"
	"github.com/MrEthical07/phoneauth/internal/logging"
	"github.com/MrEthical07/phoneauth/middleware"
	"github.com/MrEthical07/phoneauth/permission"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Pinger reports whether a backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps wires the router. Engine is required; the rest is optional.
type Deps struct {
	Engine      *phoneauth.Engine
	Database    Pinger
	Metrics     http.Handler
	Logger      logging.Logger
	CORSOrigins []string
}

// NewRouter builds the full handler chain: CORS, request logging, client IP
// capture and the routes.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	h := &handlers{engine: d.Engine, db: d.Database, log: d.Logger}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	route(v1, "/sign-up", http.HandlerFunc(h.signUp), http.MethodPost)
	route(v1, "/sign-in", http.HandlerFunc(h.signIn), http.MethodPost)
	route(v1, "/sign-out", http.HandlerFunc(h.signOut), http.MethodDelete)
	route(v1, "/refresh", http.HandlerFunc(h.refresh), http.MethodGet)

	me := middleware.RoleFilter(d.Engine, permission.AtLeast(permission.RoleClient)...)
	route(v1, "/users/me", me(http.HandlerFunc(h.profile)), http.MethodGet)
	route(v1, "/users/me", me(http.HandlerFunc(h.updateProfile)), http.MethodPatch)

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics).Methods(http.MethodGet)
	}

	r.Use(clientIP, requestLogger(d.Logger))

	return cors.New(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodOptions, http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(r)
}

// route registers path with and without a trailing slash. StrictSlash would
// redirect, which turns POST into GET in most clients.
func route(r *mux.Router, path string, h http.Handler, method string) {
	r.Handle(path, h).Methods(method)
	r.Handle(path+"/", h).Methods(method)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, detailBody{Detail: "Not Found"})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, detailBody{Detail: "Method Not Allowed"})
}
