package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestToken(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		query      string
		allowQuery bool
		want       string
		wantOK     bool
	}{
		{name: "bearer", header: "Bearer abc", want: "abc", wantOK: true},
		{name: "scheme is case insensitive", header: "bearer  abc ", want: "abc", wantOK: true},
		{name: "basic is ignored", header: "Basic abc", wantOK: false},
		{name: "query when allowed", query: "q1", allowQuery: true, want: "q1", wantOK: true},
		{name: "query when not allowed", query: "q1", wantOK: false},
		{name: "header wins over query", header: "Bearer abc", query: "q1", allowQuery: true, want: "abc", wantOK: true},
		{name: "missing", allowQuery: true, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/v1/answer-sheets/1"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			r := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			got, ok := requestToken(w, r, tt.allowQuery)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			if !ok {
				assert.Equal(t, http.StatusUnauthorized, w.Code)
			}
		})
	}
}
