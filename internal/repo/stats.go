package repo

// Stats - счетчики задач по статусам плюс непрочитанные уведомления
// запрашивающего пользователя
type Stats struct {
	TotalTasks          int            `json:"total_tasks"`
	ByStatus            map[string]int `json:"by_status"`
	UnreadNotifications int            `json:"unread_notifications"`
}
