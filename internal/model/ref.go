package model

import "github.com/google/uuid"

// UserRef - ссылка на пользователя в том виде, в котором ее шлет клиент: {"_id": "..."}
type UserRef struct {
	ID string `json:"_id"`
}

// Parse превращает ссылку в типизированный идентификатор
func (r UserRef) Parse() (uuid.UUID, error) {
	return uuid.Parse(r.ID)
}
