package model

import "strings"

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinator Role = "coordinator" // Завуч: те же права на расписание, что у администратора
	RoleTeacher     Role = "teacher"
)

// ParseRole разбирает роль из токена; неизвестные роли понижаются до teacher
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleCoordinator:
		return RoleCoordinator
	}
	return RoleTeacher
}

// Requester пользователь, от имени которого выполняется операция
type Requester struct {
	ID   string `json:"id"`   // email или логин
	Name string `json:"name"` // имя учителя в расписании
	Role Role   `json:"role"`
}

// IsPrivileged проверяет, есть ли у пользователя права администратора расписания
func (r Requester) IsPrivileged() bool {
	return r.Role == RoleAdmin || r.Role == RoleCoordinator
}

// Identity возвращает идентификатор для поля createdBy
func (r Requester) Identity() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Name
}
