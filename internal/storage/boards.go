package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ExportRow is one task of a board joined with its assignee.
type ExportRow struct {
	Title       string `db:"title"`
	Description string `db:"description"`
	DisplayName string `db:"display_name"`
	Status      string `db:"status"`
}

// TaskIDsByBoard returns the task ids of every board owned by the team, keyed by board id.
func (g *Gateway) TaskIDsByBoard(ctx context.Context, teamID int64) (map[int64][]int64, error) {
	var rows []struct {
		ID      int64 `db:"id"`
		BoardID int64 `db:"board_id"`
	}
	query := g.ext.Rebind(`SELECT t.id, t.board_id FROM tasks t
        JOIN boards b ON b.id = t.board_id
        WHERE b.team_id = ? ORDER BY t.id`)
	if err := sqlx.SelectContext(ctx, g.ext, &rows, query, teamID); err != nil {
		return nil, fmt.Errorf("list board tasks: %w", err)
	}

	ids := make(map[int64][]int64)
	for _, r := range rows {
		ids[r.BoardID] = append(ids[r.BoardID], r.ID)
	}
	return ids, nil
}

// ExportRows returns the board's tasks that are assigned to an existing user, in task id order.
func (g *Gateway) ExportRows(ctx context.Context, boardID int64) ([]ExportRow, error) {
	rows := []ExportRow{}
	query := g.ext.Rebind(`SELECT t.title, t.description, u.display_name, t.status
        FROM tasks t JOIN users u ON u.id = t.user_id
        WHERE t.board_id = ? ORDER BY t.id`)
	if err := sqlx.SelectContext(ctx, g.ext, &rows, query, boardID); err != nil {
		return nil, fmt.Errorf("export rows: %w", err)
	}
	return rows, nil
}
