package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"dynaform/internal/service"
)

type contextKey string

const (
	EditorIDKey      contextKey = "editorId"
	AnswerSheetIDKey contextKey = "answerSheetId"
	ReferenceKey     contextKey = "reference"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireEditor validates an editor JWT from the Authorization header.
// Editor tokens are never accepted from the query string.
func (m *AuthMiddleware) RequireEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := requestToken(w, r, false)
		if !ok {
			return
		}
		claims, err := m.authSvc.ValidateEditorToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), EditorIDKey, claims.EditorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRespondent validates a respondent JWT from the Authorization header
// or the token query param. The token must be scoped to the {id} route var.
func (m *AuthMiddleware) RequireRespondent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := requestToken(w, r, true)
		if !ok {
			return
		}
		claims, err := m.authSvc.ValidateRespondentToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}
		if id := mux.Vars(r)["id"]; id != "" && id != claims.AnswerSheetID {
			http.Error(w, `{"error":"token is not valid for this answer sheet"}`, http.StatusForbidden)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, AnswerSheetIDKey, claims.AnswerSheetID)
		ctx = context.WithValue(ctx, ReferenceKey, claims.Reference)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetEditorID extracts editor ID from context
func GetEditorID(ctx context.Context) string {
	if v, ok := ctx.Value(EditorIDKey).(string); ok {
		return v
	}
	return ""
}

// GetAnswerSheetID extracts the respondent's answer sheet ID from context
func GetAnswerSheetID(ctx context.Context) string {
	if v, ok := ctx.Value(AnswerSheetIDKey).(string); ok {
		return v
	}
	return ""
}

// IsReference reports whether the respondent is a reference
func IsReference(ctx context.Context) bool {
	v, _ := ctx.Value(ReferenceKey).(bool)
	return v
}

// requestToken returns the bearer token of r, or the token query param when
// allowQuery is set and no header is sent. A missing token is answered with
// 401 and ok false.
func requestToken(w http.ResponseWriter, r *http.Request, allowQuery bool) (token string, ok bool) {
	if scheme, value, found := strings.Cut(r.Header.Get("Authorization"), " "); found && strings.EqualFold(scheme, "bearer") {
		token = strings.TrimSpace(value)
	}
	if token == "" && allowQuery {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, `{"error":"missing authorization"}`, http.StatusUnauthorized)
		return "", false
	}
	return token, true
}
