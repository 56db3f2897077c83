package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"taskboard/internal/export"
	"taskboard/internal/models"
	"taskboard/internal/storage"
)

// BoardWriter turns a board export into a stored report and returns its name.
type BoardWriter interface {
	Write(b export.BoardExport) (string, error)
}

// BoardService manages boards and their tasks.
type BoardService struct {
	gw       *storage.Gateway
	exporter BoardWriter
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewBoardService(gw *storage.Gateway, exporter BoardWriter, logger logrus.FieldLogger) *BoardService {
	return &BoardService{gw: gw, exporter: exporter, logger: logger, now: time.Now}
}

// CreateBoard opens a new board for a team.
func (s *BoardService) CreateBoard(ctx context.Context, req CreateBoardRequest) (IDResult, error) {
	log := s.logger.WithField("board_name", req.Name)

	existing, err := storage.GetOne(ctx, s.gw, storage.Boards, storage.Eq("name", req.Name))
	if err != nil {
		return IDResult{}, err
	}
	if existing != nil {
		log.Warn("board with same name already present")
		return IDResult{}, fmt.Errorf("%w: board %q", ErrAlreadyExists, req.Name)
	}
	if err := validateRequest(req); err != nil {
		log.WithError(err).Warn("rejected board")
		return IDResult{}, err
	}

	team, err := storage.GetOne(ctx, s.gw, storage.Teams, storage.Eq("id", req.TeamID))
	if err != nil {
		return IDResult{}, err
	}
	if team == nil {
		return IDResult{}, notFound("team", req.TeamID)
	}

	board, err := storage.Create(ctx, s.gw, storage.Boards, map[string]any{
		"name":        req.Name,
		"description": req.Description,
		"team_id":     req.TeamID,
		"status":      models.BoardStatusOpen,
	})
	if err != nil {
		return IDResult{}, storeErr(err, fmt.Sprintf("board %q", req.Name))
	}

	log.WithField("board_id", board.ID).Info("board created")
	return IDResult{ID: board.ID}, nil
}

// AddTask creates an open task on a board that is still open.
func (s *BoardService) AddTask(ctx context.Context, req CreateTaskRequest) (IDResult, error) {
	log := s.logger.WithField("task_title", req.Title)

	existing, err := storage.GetOne(ctx, s.gw, storage.Tasks, storage.Eq("title", req.Title))
	if err != nil {
		return IDResult{}, err
	}
	if existing != nil {
		log.Warn("task with same title already present")
		return IDResult{}, fmt.Errorf("%w: task %q", ErrAlreadyExists, req.Title)
	}
	if err := validateRequest(req); err != nil {
		log.WithError(err).Warn("rejected task")
		return IDResult{}, err
	}

	board, err := storage.GetOne(ctx, s.gw, storage.Boards, storage.Eq("id", req.BoardID))
	if err != nil {
		return IDResult{}, err
	}
	if board == nil {
		return IDResult{}, notFound("board", req.BoardID)
	}
	if board.Closed() {
		return IDResult{}, fmt.Errorf("%w: board %q is closed", ErrConstraintViolation, board.Name)
	}

	fields := map[string]any{
		"title":       req.Title,
		"description": req.Description,
		"board_id":    req.BoardID,
		"status":      models.TaskStatusOpen,
	}
	if req.UserID != nil {
		user, err := storage.GetOne(ctx, s.gw, storage.Users, storage.Eq("id", *req.UserID))
		if err != nil {
			return IDResult{}, err
		}
		if user == nil {
			return IDResult{}, notFound("user", *req.UserID)
		}
		fields["user_id"] = *req.UserID
	}

	task, err := storage.Create(ctx, s.gw, storage.Tasks, fields)
	if err != nil {
		return IDResult{}, storeErr(err, fmt.Sprintf("task %q", req.Title))
	}

	log.WithField("task_id", task.ID).Info("task created")
	return IDResult{ID: task.ID}, nil
}

// UpdateTaskStatus sets the status of a task.
func (s *BoardService) UpdateTaskStatus(ctx context.Context, req UpdateTaskStatusRequest) (StatusResult, error) {
	log := s.logger.WithField("task_id", req.ID)
	if err := validateRequest(req); err != nil {
		return StatusResult{}, err
	}

	affected, err := storage.Update(ctx, s.gw, storage.Tasks, storage.Eq("id", req.ID), map[string]any{"status": req.Status})
	if err != nil {
		return StatusResult{}, err
	}
	if affected == 0 {
		log.Warn("could not update task status")
		return StatusResult{}, notFound("task", req.ID)
	}

	log.WithField("status", req.Status).Info("updated task status")
	return StatusResult{Status: affected}, nil
}

// ListBoards returns the boards of a team with their task ids.
func (s *BoardService) ListBoards(ctx context.Context, teamID int64) ([]BoardSummary, error) {
	team, err := storage.GetOne(ctx, s.gw, storage.Teams, storage.Eq("id", teamID))
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, notFound("team", teamID)
	}

	boards, err := storage.GetAll(ctx, s.gw, storage.Boards, storage.Eq("team_id", teamID))
	if err != nil {
		return nil, err
	}
	taskIDs, err := s.gw.TaskIDsByBoard(ctx, teamID)
	if err != nil {
		return nil, err
	}

	out := make([]BoardSummary, 0, len(boards))
	for _, b := range boards {
		ids := taskIDs[b.ID]
		if ids == nil {
			ids = []int64{}
		}
		out = append(out, BoardSummary{ID: b.ID, Name: b.Name, Status: b.Status, Tasks: ids})
	}
	return out, nil
}

// CloseBoard closes a board once every one of its tasks is COMPLETE.
func (s *BoardService) CloseBoard(ctx context.Context, id int64) (StatusResult, error) {
	log := s.logger.WithField("board_id", id)

	var affected int64
	err := s.gw.WithTx(ctx, func(tx *storage.Gateway) error {
		board, err := storage.GetOne(ctx, tx, storage.Boards, storage.Eq("id", id))
		if err != nil {
			return err
		}
		if board == nil {
			return notFound("board", id)
		}

		tasks, err := storage.GetAll(ctx, tx, storage.Tasks, storage.Eq("board_id", id))
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if t.Status != models.TaskStatusComplete {
				log.WithFields(logrus.Fields{"task": t.Title, "status": t.Status}).Warn("task not COMPLETE")
				return fmt.Errorf("%w: status of task %q is %s, not %s",
					ErrConstraintViolation, t.Title, t.Status, models.TaskStatusComplete)
			}
		}

		affected, err = storage.Update(ctx, tx, storage.Boards, storage.Eq("id", id), map[string]any{
			"status":   models.BoardStatusClosed,
			"end_time": s.now().UTC(),
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			log.Warn("could not update the board status")
			return notFound("board", id)
		}
		return nil
	})
	if err != nil {
		return StatusResult{}, err
	}

	log.Info("board closed")
	return StatusResult{Status: affected}, nil
}

// ExportBoard writes a report of the board and its assigned tasks. A board
// without assigned tasks exports an empty task table.
func (s *BoardService) ExportBoard(ctx context.Context, id int64) (ExportResult, error) {
	log := s.logger.WithField("board_id", id)

	board, err := storage.GetOne(ctx, s.gw, storage.Boards, storage.Eq("id", id))
	if err != nil {
		return ExportResult{}, err
	}
	if board == nil {
		return ExportResult{}, notFound("board", id)
	}

	team, err := storage.GetOne(ctx, s.gw, storage.Teams, storage.Eq("id", board.TeamID))
	if err != nil {
		return ExportResult{}, err
	}
	rows, err := s.gw.ExportRows(ctx, id)
	if err != nil {
		return ExportResult{}, err
	}
	if len(rows) == 0 {
		log.Warn("no assigned tasks to export")
	}

	report := export.BoardExport{
		BoardName:   board.Name,
		Description: board.Description,
		Status:      board.Status,
		Tasks:       make([]export.TaskLine, 0, len(rows)),
	}
	if team != nil {
		report.TeamName = team.Name
	}
	for _, r := range rows {
		report.Tasks = append(report.Tasks, export.TaskLine{
			Title:       r.Title,
			Description: r.Description,
			Assignee:    r.DisplayName,
			Status:      r.Status,
		})
	}

	name, err := s.exporter.Write(report)
	if err != nil {
		log.WithError(err).Error("could not export board")
		return ExportResult{}, fmt.Errorf("export board %d: %w", id, err)
	}
	return ExportResult{OutFile: name}, nil
}
