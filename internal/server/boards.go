package server

import (
	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

func (s *Server) handleCreateBoard(c *gin.Context) {
	var req service.CreateBoardRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.svc.Boards.CreateBoard(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, res)
}

func (s *Server) handleAddTask(c *gin.Context) {
	var req service.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.svc.Boards.AddTask(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, res)
}

func (s *Server) handleUpdateTaskStatus(c *gin.Context) {
	var req service.UpdateTaskStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.svc.Boards.UpdateTaskStatus(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, res)
}

func (s *Server) handleListBoards(c *gin.Context) {
	teamID, ok := parseID(c, c.Param("team_id"))
	if !ok {
		return
	}

	boards, err := s.svc.Boards.ListBoards(c.Request.Context(), teamID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, gin.H{"boards": boards})
}

func (s *Server) handleCloseBoard(c *gin.Context) {
	id, ok := parseID(c, c.Param("id"))
	if !ok {
		return
	}

	res, err := s.svc.Boards.CloseBoard(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, res)
}

// handleExportBoard writes the board report; the file is then served under /exports.
func (s *Server) handleExportBoard(c *gin.Context) {
	id, ok := parseID(c, c.Query("board_id"))
	if !ok {
		return
	}

	res, err := s.svc.Boards.ExportBoard(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, res)
}
