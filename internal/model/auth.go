package model

import "github.com/golang-jwt/jwt/v5"

// EditorClaims are JWT claims for question sheet editors
type EditorClaims struct {
	EditorID string `json:"editorId"`
	jwt.RegisteredClaims
}

// RespondentClaims are JWT claims scoped to a single answer sheet
type RespondentClaims struct {
	AnswerSheetID string `json:"answerSheetId"`
	Reference     bool   `json:"reference,omitempty"` // third-party reference filling the sheet
	jwt.RegisteredClaims
}

// LoginRequest is the request body for editor login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token    string `json:"token"`
	EditorID string `json:"editorId"`
}
