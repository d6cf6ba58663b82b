package models

import "time"

type ReminderRequest struct {
	Email      string     `json:"email"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	ReminderAt *time.Time `json:"reminderAt"`
}

type ReminderResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
