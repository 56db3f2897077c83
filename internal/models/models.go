package models

import "time"

// Board statuses. Task statuses are free-form; only TaskStatusComplete carries meaning.
const (
	BoardStatusOpen   = "OPEN"
	BoardStatusClosed = "CLOSED"

	TaskStatusOpen     = "OPEN"
	TaskStatusComplete = "COMPLETE"
)

// User is a person that can join teams and be assigned tasks.
type User struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Team groups users and owns boards.
type Team struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	AdminID     *int64    `db:"admin_id" json:"admin"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Board is a named container of tasks owned by a team.
type Board struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	TeamID      int64      `db:"team_id" json:"team_id"`
	Status      string     `db:"status" json:"status"`
	EndTime     *time.Time `db:"end_time" json:"end_time,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Task is a unit of work on a board, optionally assigned to a user.
type Task struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	BoardID     int64     `db:"board_id" json:"board_id"`
	UserID      *int64    `db:"user_id" json:"user_id"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Closed reports whether the board has been closed.
func (b Board) Closed() bool {
	return b.Status == BoardStatusClosed
}

// Membership links a user to a team.
type Membership struct {
	UserID int64 `db:"user_id" json:"user_id"`
	TeamID int64 `db:"team_id" json:"team_id"`
}
