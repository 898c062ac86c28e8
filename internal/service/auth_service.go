package service

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"dynaform/internal/config"
	"dynaform/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles editor and respondent authentication
type AuthService struct {
	editorUsername string
	editorPassword string
	jwtSecret      []byte
	respondentTTL  time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.Auth) *AuthService {
	return &AuthService{
		editorUsername: cfg.EditorUsername,
		editorPassword: cfg.EditorPassword,
		jwtSecret:      []byte(cfg.JWTSecret),
		respondentTTL:  cfg.RespondentTTL,
	}
}

// Login validates editor credentials and returns a token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.editorUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.editorPassword)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	editorID := "editor_" + uuid.New().String()[:8]

	claims := &model.EditorClaims{
		EditorID: editorID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:    tokenString,
		EditorID: editorID,
	}, nil
}

// ValidateEditorToken validates an editor JWT and returns claims
func (s *AuthService) ValidateEditorToken(tokenString string) (*model.EditorClaims, error) {
	claims := &model.EditorClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.EditorID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateRespondentToken creates a token scoped to one answer sheet
func (s *AuthService) GenerateRespondentToken(answerSheetID string, reference bool) (string, error) {
	claims := &model.RespondentClaims{
		AnswerSheetID: answerSheetID,
		Reference:     reference,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.respondentTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateRespondentToken validates a respondent JWT and returns claims
func (s *AuthService) ValidateRespondentToken(tokenString string) (*model.RespondentClaims, error) {
	claims := &model.RespondentClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.AnswerSheetID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
