package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BuzzLyutic/task-collab-api/internal/model"
	"github.com/BuzzLyutic/task-collab-api/pkg/respond"
)

// Claims - полезная нагрузка токена: идентификатор и имя пользователя
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type userKey struct{}

// GenerateToken подписывает токен для пользователя. Сервис сам токены
// не выдает, функция нужна тестам и dev-окружению
func GenerateToken(secret string, userID uuid.UUID, name string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID.String(),
		Name:   name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Auth проверяет bearer-токен (или ?token= для websocket-апгрейда)
// и кладет личность запрашивающего в контекст
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ""
			if header := r.Header.Get("Authorization"); header != "" {
				tokenString, _ = strings.CutPrefix(header, "Bearer ")
			} else {
				tokenString = r.URL.Query().Get("token")
			}
			if tokenString == "" {
				respond.Error(w, r, http.StatusUnauthorized, "authorization required")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				respond.Error(w, r, http.StatusUnauthorized, "invalid token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				respond.Error(w, r, http.StatusUnauthorized, "invalid token")
				return
			}

			user := model.AuthUser{ID: userID, Name: claims.Name}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser кладет личность в контекст, минуя разбор токена
func WithUser(ctx context.Context, user model.AuthUser) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom достает личность запрашивающего, положенную Auth
func UserFrom(ctx context.Context) (model.AuthUser, bool) {
	user, ok := ctx.Value(userKey{}).(model.AuthUser)
	return user, ok
}
