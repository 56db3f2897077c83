package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"taskboard/internal/models"
)

// MemberCount returns how many users belong to the team.
func (g *Gateway) MemberCount(ctx context.Context, teamID int64) (int, error) {
	return Count(ctx, g, Memberships, Eq("team_id", teamID))
}

// IsMember reports whether the user belongs to the team.
func (g *Gateway) IsMember(ctx context.Context, teamID, userID int64) (bool, error) {
	n, err := Count(ctx, g, Memberships, Eq("team_id", teamID), Eq("user_id", userID))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddMember links a user to a team.
func (g *Gateway) AddMember(ctx context.Context, teamID, userID int64) error {
	query := g.ext.Rebind(`INSERT INTO users_to_teams(user_id, team_id) VALUES(?, ?)`)
	if _, err := g.ext.ExecContext(ctx, query, userID, teamID); err != nil {
		return fmt.Errorf("add member: %w", translateWriteErr(err))
	}
	return nil
}

// RemoveMember unlinks a user from a team and returns the number of links removed.
func (g *Gateway) RemoveMember(ctx context.Context, teamID, userID int64) (int64, error) {
	query := g.ext.Rebind(`DELETE FROM users_to_teams WHERE team_id = ? AND user_id = ?`)
	res, err := g.ext.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return 0, fmt.Errorf("remove member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove member: %w", err)
	}
	return affected, nil
}

// Members lists the users of a team in id order.
func (g *Gateway) Members(ctx context.Context, teamID int64) ([]models.User, error) {
	users := []models.User{}
	query := g.ext.Rebind(`SELECT u.id, u.name, u.display_name, u.created_at, u.updated_at
        FROM users u JOIN users_to_teams ut ON ut.user_id = u.id
        WHERE ut.team_id = ? ORDER BY u.id`)
	if err := sqlx.SelectContext(ctx, g.ext, &users, query, teamID); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return users, nil
}

// TeamsOf lists the teams a user belongs to in id order.
func (g *Gateway) TeamsOf(ctx context.Context, userID int64) ([]models.Team, error) {
	teams := []models.Team{}
	query := g.ext.Rebind(`SELECT t.id, t.name, t.description, t.admin_id, t.created_at, t.updated_at
        FROM teams t JOIN users_to_teams ut ON ut.team_id = t.id
        WHERE ut.user_id = ? ORDER BY t.id`)
	if err := sqlx.SelectContext(ctx, g.ext, &teams, query, userID); err != nil {
		return nil, fmt.Errorf("list user teams: %w", err)
	}
	return teams, nil
}
