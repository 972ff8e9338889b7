package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban-api/domain"
	"kanban-api/session"
)

// Register wires up the websocket endpoint and the REST routes on the
// provided Echo instance. It returns the hub so the caller can observe or
// drive presence.
func Register(e *echo.Echo, store domain.Store, verifier *Verifier, logger *log.Logger) *session.Hub {
	hub := session.NewHub()
	tasks := domain.NewTaskService(store)
	boards := domain.NewBoardService(store)
	activity := domain.NewActivityService(store)
	users := domain.NewUserService(store)

	ss := &socketServer{
		hub:      hub,
		tasks:    tasks,
		boards:   boards,
		users:    users,
		verifier: verifier,
		logger:   logger,
	}
	e.GET("/ws", ss.handler())

	e.GET("/api/board", getBoard(boards))
	e.PUT("/api/board/settings", updateBoardSettings(boards, hub))
	e.GET("/api/activity/board/:boardId", getBoardActivity(activity))
	e.GET("/api/activity/task/:taskId", getTaskActivity(activity, boards))
	e.GET("/api/users", getUsers(users))
	e.POST("/api/attachments", postAttachment(tasks, boards, hub))
	e.GET("/healthz", healthz())

	return hub
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func getBoard(boards domain.BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		board, err := boards.Get(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, board)
	}
}

func updateBoardSettings(boards domain.BoardService, hub *session.Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		var upd domain.BoardUpdate
		if err := c.Bind(&upd); err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("malformed payload"))
		}
		board, err := boards.UpdateSettings(c.Request().Context(), upd)
		if err != nil {
			return writeError(c, err)
		}
		hub.Broadcast(EventBoardUpdated, board)
		return c.JSON(http.StatusOK, board)
	}
}

func getBoardActivity(activity domain.ActivityService) echo.HandlerFunc {
	return func(c echo.Context) error {
		records, err := activity.BoardActivity(c.Request().Context(), c.Param("boardId"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, records)
	}
}

func getTaskActivity(activity domain.ActivityService, boards domain.BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		board, err := boards.Get(ctx)
		if err != nil {
			return writeError(c, err)
		}
		records, err := activity.TaskActivity(ctx, board.ID, c.Param("taskId"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, records)
	}
}

func getUsers(users domain.UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		refs, err := users.List(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, refs)
	}
}

type attachmentRequest struct {
	TaskID string              `json:"taskId"`
	File   domain.FileMetadata `json:"file"`
	User   json.RawMessage     `json:"user"`
}

type attachmentResponse struct {
	Message    string            `json:"message"`
	Attachment domain.Attachment `json:"attachment"`
}

func postAttachment(tasks domain.TaskService, boards domain.BoardService, hub *session.Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req attachmentRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("malformed payload"))
		}
		ctx := c.Request().Context()
		board, err := boards.Get(ctx)
		if err != nil {
			return writeError(c, err)
		}
		actor := resolveActor(req.User).String()
		att, err := tasks.AddAttachment(ctx, board.ID, req.TaskID, req.File, actor)
		if err != nil {
			return writeError(c, err)
		}
		hub.Broadcast(EventAttachmentAdded, attachmentAdded{TaskID: req.TaskID, Attachment: att})
		return c.JSON(http.StatusCreated, attachmentResponse{Message: "attachment added", Attachment: att})
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"message": msg}
}

// writeError maps domain failures onto HTTP statuses: rejected input is a
// 400, dangling references a 404, anything else a 500.
func writeError(c echo.Context, err error) error {
	var verr domain.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, errorBody(verr.Reason))
	}
	var nf domain.NotFoundError
	if errors.As(err, &nf) {
		return c.JSON(http.StatusNotFound, errorBody(nf.Error()))
	}
	return c.JSON(http.StatusInternalServerError, errorBody("internal error"))
}
