package rest

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dynaform/internal/service"
	"dynaform/internal/transport/rest/handler"
	"dynaform/internal/transport/rest/middleware"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService          *service.AuthService
	QuestionSheetService *service.QuestionSheetService
	AnswerSheetService   *service.AnswerSheetService
	Logger               *slog.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	questionHandler := handler.NewQuestionSheetHandler(c.QuestionSheetService)
	answerHandler := handler.NewAnswerSheetHandler(c.AnswerSheetService, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)
	if c.Logger != nil {
		r.Use(middleware.RequestLogger(c.Logger))
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/question-sheets/{id}/answer-sheets", answerHandler.Create).Methods("POST", "OPTIONS")

	// Editor routes
	editorRoutes := v1.NewRoute().Subrouter()
	editorRoutes.Use(authMW.RequireEditor)

	editorRoutes.HandleFunc("/question-sheets", questionHandler.Create).Methods("POST", "OPTIONS")
	editorRoutes.HandleFunc("/question-sheets", questionHandler.List).Methods("GET", "OPTIONS")
	editorRoutes.HandleFunc("/question-sheets/{id}", questionHandler.Get).Methods("GET", "OPTIONS")
	editorRoutes.HandleFunc("/question-sheets/{id}", questionHandler.Update).Methods("PUT", "OPTIONS")
	editorRoutes.HandleFunc("/question-sheets/{id}", questionHandler.Delete).Methods("DELETE", "OPTIONS")
	editorRoutes.HandleFunc("/answer-sheets/{id}/answers", answerHandler.Answers).Methods("GET", "OPTIONS")
	editorRoutes.HandleFunc("/answer-sheets/{id}", answerHandler.Delete).Methods("DELETE", "OPTIONS")

	// Respondent routes (token scoped to one answer sheet)
	respondentRoutes := v1.NewRoute().Subrouter()
	respondentRoutes.Use(authMW.RequireRespondent)

	respondentRoutes.HandleFunc("/answer-sheets/{id}", answerHandler.Show).Methods("GET", "OPTIONS")
	respondentRoutes.HandleFunc("/answer-sheets/{id}/pages/{number:[0-9]+}", answerHandler.GetPage).Methods("GET", "OPTIONS")
	respondentRoutes.HandleFunc("/answer-sheets/{id}/pages/{number:[0-9]+}", answerHandler.SavePage).Methods("PUT", "OPTIONS")
	respondentRoutes.HandleFunc("/answer-sheets/{id}/submit", answerHandler.Submit).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
