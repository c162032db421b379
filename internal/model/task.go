package model

import (
	"time"

	"github.com/google/uuid"
)

// Статусы задачи. Переходы между ними не валидируются - порядок диктует клиент
const (
	StatusOpen       = "open"
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusTesting    = "testing"
	StatusCompleted  = "completed"
)

type Task struct {
	ID            uuid.UUID   `json:"id"`
	TicketNo      int64       `json:"ticket_no"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Status        string      `json:"status"`
	Priority      int         `json:"priority"`
	DueDate       *time.Time  `json:"due_date,omitempty"`
	CreatedBy     uuid.UUID   `json:"created_by"`
	AssignedTo    *uuid.UUID  `json:"assigned_to,omitempty"`
	Collaborators []uuid.UUID `json:"collaborators"`
	Comments      []Comment   `json:"comments,omitempty"`
	File          *FileMeta   `json:"file,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// FileMeta - только метаданные вложения, сам файл хранится вне ядра
type FileMeta struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Ref         string `json:"ref"`
}

// TaskDraft - входные данные на создание. Ссылки остаются строками,
// их валидирует сервис
type TaskDraft struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	Priority      int        `json:"priority"`
	DueDate       *time.Time `json:"dueDate"`
	AssignedTo    string     `json:"assignedTo"`
	Collaborators []UserRef  `json:"collaborators"`
	File          *FileMeta  `json:"-"`
}

// TaskPatch - частичное обновление, nil-поля не трогаем.
// Collaborators == nil означает "не менять", пустой список - убрать всех
type TaskPatch struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	Priority      *int       `json:"priority"`
	DueDate       *time.Time `json:"dueDate"`
	AssignedTo    *string    `json:"assignedTo"`
	Collaborators []UserRef  `json:"collaborators"`
	Comments      *string    `json:"comments"`
}

type TaskFilter struct {
	Status *string
}
