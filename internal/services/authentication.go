package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"walletproof/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Authentication struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthentication(secret string) (*Authentication, error) {
	if secret == "" {
		return nil, errors.New("empty jwt secret")
	}
	return &Authentication{[]byte(secret), JWT_EXPIRATION, time.Now}, nil
}

func (authentication *Authentication) CreateToken(user *models.User) (string, error) {
	now := authentication.now()
	claims := &CustomClaims{
		ID:       user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(authentication.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(authentication.secret)
}

func (authentication *Authentication) Validate(token string) (*models.UserFromAuth, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return authentication.secret, nil
	}
	jwtToken, err := jwt.ParseWithClaims(token, &CustomClaims{}, keyFunc, jwt.WithTimeFunc(authentication.now))
	if err != nil {
		return nil, err
	}

	claims, ok := jwtToken.Claims.(*CustomClaims)
	if !ok || claims.ID == 0 {
		return nil, errors.New("invalid token claims")
	}

	return &models.UserFromAuth{
		ID:       claims.ID,
		Username: claims.Username,
	}, nil
}
