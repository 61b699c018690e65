package models

import "time"

// User represents a student. Telegram identity is optional; ChatID is the
// chat reminders are delivered to.
type User struct {
	ID               int64     `json:"id" db:"id"`
	TelegramID       int64     `json:"telegram_id" db:"telegram_id"`
	TelegramUsername string    `json:"telegram_username" db:"telegram_username"`
	FirstName        string    `json:"first_name" db:"first_name"`
	LastName         string    `json:"last_name" db:"last_name"`
	ChatID           int64     `json:"chat_id" db:"chat_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns the user's full name
func (u *User) FullName() string {
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}

// DisplayName returns the best display name for the user
func (u *User) DisplayName() string {
	if u.TelegramUsername != "" {
		return "@" + u.TelegramUsername
	}
	return u.FullName()
}

// CanReceiveReminders returns true if the user has linked a chat
func (u *User) CanReceiveReminders() bool {
	return u.ChatID != 0
}
