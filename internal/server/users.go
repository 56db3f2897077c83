package server

import (
	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

func (s *Server) handleCreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.svc.Users.CreateUser(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, res)
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.svc.Users.ListUsers(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, gin.H{"users": users})
}

func (s *Server) handleDescribeUser(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"))
	if !ok {
		return
	}

	user, err := s.svc.Users.DescribeUser(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, user)
}

// handleUpdateUser applies a partial update; absent fields keep their value.
func (s *Server) handleUpdateUser(c *gin.Context) {
	var req service.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.svc.Users.UpdateUser(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, res)
}

func (s *Server) handleUserTeams(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"))
	if !ok {
		return
	}

	teams, err := s.svc.Users.GetUserTeams(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, gin.H{"teams": teams})
}
