package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	videos := VideoHandler{Metadata: deps.Metadata}
	dl := DownloadHandler{Downloads: deps.Downloads, Metadata: deps.Metadata, Sessions: deps.Sessions}
	history := HistoryHandler{History: deps.History, Sessions: deps.Sessions}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/auth/password-reset", auth.RequestPasswordReset)
	mux.HandleFunc("/api/v1/videos/lookup", videos.Lookup)
	mux.HandleFunc("/api/v1/downloads", dl.Create)
	mux.HandleFunc("/api/v1/history", history.List)
	mux.HandleFunc("/api/v1/history/delete", history.Delete)
	mux.HandleFunc("/api/v1/history/clear", history.Clear)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users       UserStore
	Sessions    SessionManager
	Metadata    MetadataProvider
	Downloads   Downloader
	History     HistoryStore
	AuthLimiter RateLimiter
}
