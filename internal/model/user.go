package model

import "github.com/google/uuid"

// AuthUser - личность запрашивающего, извлеченная на границе из токена
type AuthUser struct {
	ID   uuid.UUID
	Name string
}
