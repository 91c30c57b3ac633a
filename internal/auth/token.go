package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	subjectAccess  = "access"
	subjectRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret           []byte
	RefreshSecret    []byte
	ExpiresIn        time.Duration
	RefreshExpiresIn time.Duration
	Issuer           string
	Audience         string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Tokens signs and checks HS256 access and refresh tokens. The two kinds use
// separate secrets and lifetimes and are told apart by their subject.
type Tokens struct {
	config TokenConfig
}

func NewTokens(config TokenConfig) (Tokens, error) {
	if len(config.Secret) == 0 || len(config.RefreshSecret) == 0 {
		return Tokens{}, errors.New("token secrets must not be empty")
	}

	return Tokens{config: config}, nil
}

func (tokens Tokens) sign(userID string, subject string, secret []byte, lifetime time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    tokens.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
	if tokens.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{tokens.config.Audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (tokens Tokens) Issue(userID string) (TokenPair, error) {
	accessToken, err := tokens.sign(userID, subjectAccess, tokens.config.Secret, tokens.config.ExpiresIn)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := tokens.sign(userID, subjectRefresh, tokens.config.RefreshSecret, tokens.config.RefreshExpiresIn)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (tokens Tokens) parse(tokenString string, subject string, secret []byte) (Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(subject),
	}
	if tokens.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(tokens.config.Issuer))
	}
	if tokens.config.Audience != "" {
		options = append(options, jwt.WithAudience(tokens.config.Audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		return secret, nil
	}, options...)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return Claims{}, ErrInvalidToken
	}

	return *claims, nil
}

func (tokens Tokens) ParseAccess(tokenString string) (Claims, error) {
	return tokens.parse(tokenString, subjectAccess, tokens.config.Secret)
}

func (tokens Tokens) ParseRefresh(tokenString string) (Claims, error) {
	return tokens.parse(tokenString, subjectRefresh, tokens.config.RefreshSecret)
}
