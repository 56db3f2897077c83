package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"taskboard/internal/cache"
	"taskboard/internal/models"
	"taskboard/internal/storage"
)

// TeamService manages teams and their membership.
type TeamService struct {
	gw     *storage.Gateway
	cache  cache.Cache
	logger logrus.FieldLogger
}

func NewTeamService(gw *storage.Gateway, c cache.Cache, logger logrus.FieldLogger) *TeamService {
	return &TeamService{gw: gw, cache: c, logger: logger}
}

// CreateTeam stores a new team with a unique name and an optional admin.
func (s *TeamService) CreateTeam(ctx context.Context, req CreateTeamRequest) (IDResult, error) {
	log := s.logger.WithField("name", req.Name)

	existing, err := storage.GetOne(ctx, s.gw, storage.Teams, storage.Eq("name", req.Name))
	if err != nil {
		return IDResult{}, err
	}
	if existing != nil {
		log.Warn("team with same name already present")
		return IDResult{}, fmt.Errorf("%w: team %q", ErrAlreadyExists, req.Name)
	}
	if err := validateRequest(req); err != nil {
		log.WithError(err).Warn("rejected team")
		return IDResult{}, err
	}

	fields := map[string]any{
		"name":        req.Name,
		"description": req.Description,
	}
	if req.Admin != nil {
		if err := s.requireUser(ctx, s.gw, *req.Admin); err != nil {
			return IDResult{}, err
		}
		fields["admin_id"] = *req.Admin
	}

	team, err := storage.Create(ctx, s.gw, storage.Teams, fields)
	if err != nil {
		return IDResult{}, storeErr(err, fmt.Sprintf("team %q", req.Name))
	}

	log.WithField("team_id", team.ID).Info("team created")
	return IDResult{ID: team.ID}, nil
}

// DescribeTeam returns a single team.
func (s *TeamService) DescribeTeam(ctx context.Context, id int64) (TeamDetails, error) {
	var details TeamDetails
	if found, err := s.cache.Get(ctx, cache.TeamKey(id), &details); err != nil {
		s.logger.WithError(err).Warn("team cache lookup failed")
	} else if found {
		return details, nil
	}

	team, err := storage.GetOne(ctx, s.gw, storage.Teams, storage.Eq("id", id))
	if err != nil {
		return TeamDetails{}, err
	}
	if team == nil {
		return TeamDetails{}, notFound("team", id)
	}

	details = teamDetails(*team)
	if err := s.cache.Set(ctx, cache.TeamKey(id), details); err != nil {
		s.logger.WithError(err).Warn("team cache store failed")
	}
	return details, nil
}

// ListTeams returns every team in id order.
func (s *TeamService) ListTeams(ctx context.Context) ([]TeamDetails, error) {
	teams, err := storage.GetAll(ctx, s.gw, storage.Teams)
	if err != nil {
		return nil, err
	}

	out := make([]TeamDetails, 0, len(teams))
	for _, t := range teams {
		out = append(out, teamDetails(t))
	}
	return out, nil
}

// UpdateTeam applies the fields present in req.Team.
func (s *TeamService) UpdateTeam(ctx context.Context, req UpdateTeamRequest) (StatusResult, error) {
	log := s.logger.WithField("team_id", req.ID)
	if err := validateRequest(req); err != nil {
		return StatusResult{}, err
	}

	changes := map[string]any{}
	if req.Team.Name != nil {
		if *req.Team.Name == "" {
			return StatusResult{}, fmt.Errorf("%w: name is required", ErrInvalid)
		}
		if err := checkLimit("name", *req.Team.Name, models.MaxTeamNameLen); err != nil {
			return StatusResult{}, err
		}
		changes["name"] = *req.Team.Name
	}
	if req.Team.Description != nil {
		if err := checkLimit("description", *req.Team.Description, models.MaxTeamDescriptionLen); err != nil {
			return StatusResult{}, err
		}
		changes["description"] = *req.Team.Description
	}
	if admin := req.Team.Admin; admin.Set {
		if admin.ID == nil {
			changes["admin_id"] = nil
		} else {
			if err := s.requireUser(ctx, s.gw, *admin.ID); err != nil {
				return StatusResult{}, err
			}
			changes["admin_id"] = *admin.ID
		}
	}

	affected, err := storage.Update(ctx, s.gw, storage.Teams, storage.Eq("id", req.ID), changes)
	if err != nil {
		return StatusResult{}, storeErr(err, "team name")
	}
	if affected == 0 {
		log.Warn("could not update the team details")
		return StatusResult{}, notFound("team", req.ID)
	}

	if err := s.cache.Delete(ctx, cache.TeamKey(req.ID)); err != nil {
		log.WithError(err).Warn("team cache invalidation failed")
	}
	log.Info("updated team details")
	return StatusResult{Status: affected}, nil
}

// AddUsersToTeam adds users to a team in one transaction. The whole batch is
// rejected when it could push the team past models.MaxTeamMembers. Unknown
// user ids and users already in the team are skipped.
func (s *TeamService) AddUsersToTeam(ctx context.Context, req MembershipRequest) (MembershipResult, error) {
	log := s.logger.WithField("team_id", req.ID)
	if err := validateRequest(req); err != nil {
		return MembershipResult{}, err
	}

	result := MembershipResult{Applied: []int64{}, Skipped: []int64{}}
	err := s.gw.WithTx(ctx, func(tx *storage.Gateway) error {
		if err := s.requireTeam(ctx, tx, req.ID); err != nil {
			return err
		}

		current, err := tx.MemberCount(ctx, req.ID)
		if err != nil {
			return err
		}
		if !models.MembershipFits(current, len(req.Users)) {
			log.WithFields(logrus.Fields{"current": current, "requested": len(req.Users)}).Warn("team member limit exceeded")
			return fmt.Errorf("%w: cannot add more than %d users, current users in team: %d",
				ErrLimitExceeded, models.MaxTeamMembers, current)
		}

		for _, userID := range req.Users {
			user, err := storage.GetOne(ctx, tx, storage.Users, storage.Eq("id", userID))
			if err != nil {
				return err
			}
			if user == nil {
				log.WithField("user_id", userID).Warn("user does not exist")
				result.Skipped = append(result.Skipped, userID)
				continue
			}

			member, err := tx.IsMember(ctx, req.ID, userID)
			if err != nil {
				return err
			}
			if member {
				result.Skipped = append(result.Skipped, userID)
				continue
			}

			if err := tx.AddMember(ctx, req.ID, userID); err != nil {
				return err
			}
			log.WithField("user_id", userID).Info("added user to team")
			result.Applied = append(result.Applied, userID)
		}
		return nil
	})
	if err != nil {
		return MembershipResult{}, err
	}
	return result, nil
}

// RemoveUsersFromTeam removes users from a team in one transaction. Unknown
// user ids and users outside the team are skipped.
func (s *TeamService) RemoveUsersFromTeam(ctx context.Context, req MembershipRequest) (MembershipResult, error) {
	log := s.logger.WithField("team_id", req.ID)
	if err := validateRequest(req); err != nil {
		return MembershipResult{}, err
	}

	result := MembershipResult{Applied: []int64{}, Skipped: []int64{}}
	err := s.gw.WithTx(ctx, func(tx *storage.Gateway) error {
		if err := s.requireTeam(ctx, tx, req.ID); err != nil {
			return err
		}

		for _, userID := range req.Users {
			user, err := storage.GetOne(ctx, tx, storage.Users, storage.Eq("id", userID))
			if err != nil {
				return err
			}
			if user == nil {
				log.WithField("user_id", userID).Warn("user does not exist")
				result.Skipped = append(result.Skipped, userID)
				continue
			}

			removed, err := tx.RemoveMember(ctx, req.ID, userID)
			if err != nil {
				return err
			}
			if removed == 0 {
				result.Skipped = append(result.Skipped, userID)
				continue
			}
			log.WithField("user_id", userID).Info("removed user from team")
			result.Applied = append(result.Applied, userID)
		}
		return nil
	})
	if err != nil {
		return MembershipResult{}, err
	}
	return result, nil
}

// ListTeamUsers returns the members of a team.
func (s *TeamService) ListTeamUsers(ctx context.Context, id int64) ([]TeamMember, error) {
	if err := s.requireTeam(ctx, s.gw, id); err != nil {
		return nil, err
	}

	users, err := s.gw.Members(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]TeamMember, 0, len(users))
	for _, u := range users {
		out = append(out, TeamMember{ID: u.ID, Name: u.Name, DisplayName: u.DisplayName})
	}
	return out, nil
}

func (s *TeamService) requireTeam(ctx context.Context, gw *storage.Gateway, id int64) error {
	team, err := storage.GetOne(ctx, gw, storage.Teams, storage.Eq("id", id))
	if err != nil {
		return err
	}
	if team == nil {
		return notFound("team", id)
	}
	return nil
}

func (s *TeamService) requireUser(ctx context.Context, gw *storage.Gateway, id int64) error {
	user, err := storage.GetOne(ctx, gw, storage.Users, storage.Eq("id", id))
	if err != nil {
		return err
	}
	if user == nil {
		return notFound("user", id)
	}
	return nil
}

func teamDetails(t models.Team) TeamDetails {
	return TeamDetails{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		CreationTime: t.CreatedAt,
		Admin:        t.AdminID,
	}
}
