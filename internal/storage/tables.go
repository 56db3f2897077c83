package storage

import "taskboard/internal/models"

// Table describes how an entity maps onto its table.
type Table[T any] struct {
	Name     string
	Columns  []string
	Writable []string
}

func (t Table[T]) hasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

func (t Table[T]) writable(column string) bool {
	for _, c := range t.Writable {
		if c == column {
			return true
		}
	}
	return false
}

var (
	Users = Table[models.User]{
		Name:     "users",
		Columns:  []string{"id", "name", "display_name", "created_at", "updated_at"},
		Writable: []string{"name", "display_name"},
	}

	Teams = Table[models.Team]{
		Name:     "teams",
		Columns:  []string{"id", "name", "description", "admin_id", "created_at", "updated_at"},
		Writable: []string{"name", "description", "admin_id"},
	}

	Boards = Table[models.Board]{
		Name:     "boards",
		Columns:  []string{"id", "name", "description", "team_id", "status", "end_time", "created_at", "updated_at"},
		Writable: []string{"name", "description", "team_id", "status", "end_time"},
	}

	Tasks = Table[models.Task]{
		Name:     "tasks",
		Columns:  []string{"id", "title", "description", "board_id", "user_id", "status", "created_at", "updated_at"},
		Writable: []string{"title", "description", "board_id", "user_id", "status"},
	}

	// Memberships is the users_to_teams link table. It has no id column, so
	// it only serves Count.
	Memberships = Table[models.Membership]{
		Name:    "users_to_teams",
		Columns: []string{"user_id", "team_id"},
	}
)
