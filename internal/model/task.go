package model

import "time"

// Task is a recurring care template: it recurs at a time of day on a set of
// weekdays. Per-day completion state lives in TaskCompletion rows, never on
// the template itself.
type Task struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	PetID       int64     `json:"pet_id"`
	AssignedTo  *int64    `json:"assigned_to"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Time        string    `json:"time"`         // "HH:MM", 24-hour
	DaysOfWeek  []int     `json:"days_of_week"` // 0=Sunday..6=Saturday
	Priority    string    `json:"priority"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskCompletion records that a task's occurrence on a calendar date was
// done. At most one row exists per (task, date); absence means not completed.
type TaskCompletion struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"task_id"`
	Date        string    `json:"date"` // "YYYY-MM-DD"
	CompletedBy *int64    `json:"completed_by"`
	CompletedAt time.Time `json:"completed_at"`
}

// TaskWithCompletion annotates a template with its derived completion state
// for a specific date.
type TaskWithCompletion struct {
	Task
	IsCompleted bool `json:"is_completed"`
}
