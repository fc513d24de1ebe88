package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "zoomhook/internal/pkg/errors"
	"zoomhook/internal/platform/config"
)

const (
	RoleAttendee = 0
	RoleHost     = 1
)

const (
	// clockSkew backdates iat so clients with a slow clock accept the token.
	clockSkew = 30 * time.Second
	tokenTTL  = time.Hour
)

// MeetingClaims is the Meeting SDK claim set. The raw JWS profile carries the
// same values under different names.
type MeetingClaims struct {
	AppKey        string `json:"appKey"`
	SDKKey        string `json:"sdkKey"`
	MeetingNumber string `json:"mn"`
	Role          int    `json:"role"`
	TokenExp      int64  `json:"tokenExp"`
	jwt.RegisteredClaims
}

type jwsHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

type jwsPayload struct {
	AppKey        string `json:"app_key"`
	MeetingNumber string `json:"mn"`
	RoleType      int    `json:"role_type"`
	IssuedAt      int64  `json:"iat"`
	ExpiresAt     int64  `json:"exp"`
}

// MeetingTokens is returned by GET /meetingToken.
type MeetingTokens struct {
	Signature string `json:"signature"`
	Token     string `json:"token"`
}

type TokenService struct {
	key    string
	secret string
	now    func() time.Time
}

func NewTokenService(cfg config.ZoomConfig) *TokenService {
	return &TokenService{key: cfg.ClientID, secret: cfg.ClientSecret, now: time.Now}
}

func (s *TokenService) claims(meetingNumber string, role int) (*MeetingClaims, error) {
	if meetingNumber == "" {
		return nil, apperrors.Validation("auth.meeting_token", "meetingNumber is required")
	}
	if role != RoleAttendee && role != RoleHost {
		return nil, apperrors.Validation("auth.meeting_token", "role must be 0 or 1")
	}
	if s.secret == "" {
		return nil, errors.New("client secret not configured")
	}

	iat := s.now().Add(-clockSkew).Truncate(time.Second)
	exp := iat.Add(tokenTTL)

	return &MeetingClaims{
		AppKey:        s.key,
		SDKKey:        s.key,
		MeetingNumber: meetingNumber,
		Role:          role,
		TokenExp:      exp.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}, nil
}

// GenerateSignature returns a Meeting SDK signature.
func (s *TokenService) GenerateSignature(meetingNumber string, role int) (string, error) {
	claims, err := s.claims(meetingNumber, role)
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// GenerateJWS returns the same claims as a hand-assembled compact JWS with
// snake_case payload names.
func (s *TokenService) GenerateJWS(meetingNumber string, role int) (string, error) {
	claims, err := s.claims(meetingNumber, role)
	if err != nil {
		return "", err
	}
	return s.signJWS(claims)
}

func (s *TokenService) signJWS(claims *MeetingClaims) (string, error) {
	header, err := json.Marshal(jwsHeader{Alg: "HS256", Typ: "JWT"})
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(jwsPayload{
		AppKey:        claims.AppKey,
		MeetingNumber: claims.MeetingNumber,
		RoleType:      claims.Role,
		IssuedAt:      claims.IssuedAt.Unix(),
		ExpiresAt:     claims.ExpiresAt.Unix(),
	})
	if err != nil {
		return "", err
	}

	signingString := base64.RawURLEncoding.EncodeToString(header) + "." + base64.RawURLEncoding.EncodeToString(payload)
	sig, err := jwt.SigningMethodHS256.Sign(signingString, []byte(s.secret))
	if err != nil {
		return "", err
	}
	return signingString + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Generate issues both profiles from a single claim set.
func (s *TokenService) Generate(meetingNumber string, role int) (*MeetingTokens, error) {
	claims, err := s.claims(meetingNumber, role)
	if err != nil {
		return nil, err
	}

	signature, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return nil, err
	}
	token, err := s.signJWS(claims)
	if err != nil {
		return nil, err
	}

	return &MeetingTokens{Signature: signature, Token: token}, nil
}

func (s *TokenService) ValidateSignature(tokenString string) (*MeetingClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &MeetingClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.secret), nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*MeetingClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
