package server

import (
	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

func (s *Server) handleCreateTeam(c *gin.Context) {
	var req service.CreateTeamRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.svc.Teams.CreateTeam(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, res)
}

func (s *Server) handleListTeams(c *gin.Context) {
	teams, err := s.svc.Teams.ListTeams(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, gin.H{"teams": teams})
}

func (s *Server) handleDescribeTeam(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"))
	if !ok {
		return
	}

	team, err := s.svc.Teams.DescribeTeam(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, team)
}

func (s *Server) handleUpdateTeam(c *gin.Context) {
	var req service.UpdateTeamRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.svc.Teams.UpdateTeam(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, res)
}

func (s *Server) handleAddUsers(c *gin.Context) {
	var req service.MembershipRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.svc.Teams.AddUsersToTeam(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, res)
}

func (s *Server) handleRemoveUsers(c *gin.Context) {
	var req service.MembershipRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.svc.Teams.RemoveUsersFromTeam(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, res)
}

func (s *Server) handleTeamUsers(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"))
	if !ok {
		return
	}

	users, err := s.svc.Teams.ListTeamUsers(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, gin.H{"users": users})
}
