package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"taskboard/internal/cache"
	"taskboard/internal/models"
	"taskboard/internal/storage"
)

// UserService manages users and their team memberships.
type UserService struct {
	gw     *storage.Gateway
	cache  cache.Cache
	logger logrus.FieldLogger
}

func NewUserService(gw *storage.Gateway, c cache.Cache, logger logrus.FieldLogger) *UserService {
	return &UserService{gw: gw, cache: c, logger: logger}
}

// CreateUser stores a new user with a unique name.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (IDResult, error) {
	log := s.logger.WithField("name", req.Name)

	existing, err := storage.GetOne(ctx, s.gw, storage.Users, storage.Eq("name", req.Name))
	if err != nil {
		return IDResult{}, err
	}
	if existing != nil {
		log.Warn("user with same name already present")
		return IDResult{}, fmt.Errorf("%w: user %q", ErrAlreadyExists, req.Name)
	}
	if err := validateRequest(req); err != nil {
		log.WithError(err).Warn("rejected user")
		return IDResult{}, err
	}

	user, err := storage.Create(ctx, s.gw, storage.Users, map[string]any{
		"name":         req.Name,
		"display_name": req.DisplayName,
	})
	if err != nil {
		return IDResult{}, storeErr(err, fmt.Sprintf("user %q", req.Name))
	}

	log.WithField("user_id", user.ID).Info("user created")
	return IDResult{ID: user.ID}, nil
}

// DescribeUser returns a single user.
func (s *UserService) DescribeUser(ctx context.Context, id int64) (UserDetails, error) {
	var details UserDetails
	if found, err := s.cache.Get(ctx, cache.UserKey(id), &details); err != nil {
		s.logger.WithError(err).Warn("user cache lookup failed")
	} else if found {
		return details, nil
	}

	user, err := storage.GetOne(ctx, s.gw, storage.Users, storage.Eq("id", id))
	if err != nil {
		return UserDetails{}, err
	}
	if user == nil {
		return UserDetails{}, notFound("user", id)
	}

	details = userDetails(*user)
	if err := s.cache.Set(ctx, cache.UserKey(id), details); err != nil {
		s.logger.WithError(err).Warn("user cache store failed")
	}
	return details, nil
}

// ListUsers returns every user in id order.
func (s *UserService) ListUsers(ctx context.Context) ([]UserDetails, error) {
	users, err := storage.GetAll(ctx, s.gw, storage.Users)
	if err != nil {
		return nil, err
	}

	out := make([]UserDetails, 0, len(users))
	for _, u := range users {
		out = append(out, userDetails(u))
	}
	return out, nil
}

// UpdateUser applies the fields present in req.User.
func (s *UserService) UpdateUser(ctx context.Context, req UpdateUserRequest) (StatusResult, error) {
	log := s.logger.WithField("user_id", req.ID)
	if err := validateRequest(req); err != nil {
		return StatusResult{}, err
	}

	changes := map[string]any{}
	if req.User.Name != nil {
		if *req.User.Name == "" {
			return StatusResult{}, fmt.Errorf("%w: name is required", ErrInvalid)
		}
		if err := checkLimit("name", *req.User.Name, models.MaxUserNameLen); err != nil {
			return StatusResult{}, err
		}
		changes["name"] = *req.User.Name
	}
	if req.User.DisplayName != nil {
		if err := checkLimit("display_name", *req.User.DisplayName, models.MaxUserDisplayNameLen); err != nil {
			return StatusResult{}, err
		}
		changes["display_name"] = *req.User.DisplayName
	}

	affected, err := storage.Update(ctx, s.gw, storage.Users, storage.Eq("id", req.ID), changes)
	if err != nil {
		return StatusResult{}, storeErr(err, "user name")
	}
	if affected == 0 {
		log.Warn("could not update the given user")
		return StatusResult{}, notFound("user", req.ID)
	}

	if err := s.cache.Delete(ctx, cache.UserKey(req.ID)); err != nil {
		log.WithError(err).Warn("user cache invalidation failed")
	}
	log.Info("updated the user details")
	return StatusResult{Status: affected}, nil
}

// GetUserTeams lists the teams the user belongs to. An unknown user is
// reported as ErrNotFound like every other lookup by id.
func (s *UserService) GetUserTeams(ctx context.Context, id int64) ([]TeamSummary, error) {
	user, err := storage.GetOne(ctx, s.gw, storage.Users, storage.Eq("id", id))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user", id)
	}

	teams, err := s.gw.TeamsOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	out := make([]TeamSummary, 0, len(teams))
	for _, t := range teams {
		out = append(out, TeamSummary{ID: t.ID, Name: t.Name, Description: t.Description})
	}
	return out, nil
}

func userDetails(u models.User) UserDetails {
	return UserDetails{
		ID:           u.ID,
		Name:         u.Name,
		DisplayName:  u.DisplayName,
		CreationTime: u.CreatedAt,
	}
}
