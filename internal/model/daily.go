package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskDailyUpdate - ежедневный отчет по задаче. Привязан к задаче через
// ее номер тикета, а не внутренний id. AssignedTo - денормализованная
// копия исполнителя задачи на момент создания отчета
type TaskDailyUpdate struct {
	ID          uuid.UUID   `json:"id"`
	TicketNo    int64       `json:"ticketNo"`
	About       string      `json:"about"`
	Description string      `json:"description"`
	Date        time.Time   `json:"date"`
	Tags        []uuid.UUID `json:"tags"`
	CreatedBy   uuid.UUID   `json:"created_by"`
	AssignedTo  *uuid.UUID  `json:"assigned_to,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type DailyUpdateDraft struct {
	TicketNo    int64      `json:"ticketNo"`
	About       string     `json:"about"`
	Description string     `json:"description"`
	Date        *time.Time `json:"date"`
	Tags        []string   `json:"tags"`
}

// DailyUpdatePatch несет id редактируемой записи (поле taskId - так его
// называет клиент) плюс те же поля, что и черновик
type DailyUpdatePatch struct {
	ID string `json:"taskId"`
	DailyUpdateDraft
}
