// Package service holds the board, team and user business rules. Services
// never touch the database directly; every read and write goes through the
// storage gateway they were built with.
package service

import (
	"github.com/sirupsen/logrus"

	"taskboard/internal/cache"
	"taskboard/internal/storage"
)

// Services bundles the domain services sharing one gateway.
type Services struct {
	Users  *UserService
	Teams  *TeamService
	Boards *BoardService
}

// New wires the services. A nil cache disables caching.
func New(gw *storage.Gateway, c cache.Cache, exporter BoardWriter, logger logrus.FieldLogger) *Services {
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Services{
		Users:  NewUserService(gw, c, logger.WithField("service", "users")),
		Teams:  NewTeamService(gw, c, logger.WithField("service", "teams")),
		Boards: NewBoardService(gw, exporter, logger.WithField("service", "boards")),
	}
}
