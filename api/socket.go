package api

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"

	"kanban-api/domain"
	"kanban-api/session"
)

// socketServer terminates the bidirectional channel: it owns the read loop,
// dispatches event frames to the mutation engine and fans results out
// through the hub.
type socketServer struct {
	hub      *session.Hub
	tasks    domain.TaskService
	boards   domain.BoardService
	users    domain.UserService
	verifier *Verifier
	logger   *log.Logger
}

// socketConn serializes writes to one websocket. Acks and broadcasts race
// from different goroutines; the mutex keeps frames whole on the wire.
type socketConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *socketConn) send(event string, data any) {
	c.write(push{Event: event, Data: data})
}

func (c *socketConn) write(v any) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = websocket.Message.Send(c.ws, string(data))
}

func (s *socketServer) handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		websocket.Handler(s.serve).ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

func (s *socketServer) serve(ws *websocket.Conn) {
	conn := &socketConn{ws: ws}
	socketID := s.hub.Connect(conn.send)
	s.logger.WithField("socket", socketID).Debug("socket connected")
	defer func() {
		s.hub.Disconnect(socketID)
		s.logger.WithField("socket", socketID).Debug("socket disconnected")
	}()

	var wg sync.WaitGroup
	for {
		var raw string
		if err := websocket.Message.Receive(ws, &raw); err != nil {
			break
		}
		var f frame
		if err := sonic.ConfigStd.Unmarshal([]byte(raw), &f); err != nil {
			s.logger.WithField("socket", socketID).WithError(err).Warn("malformed frame")
			continue
		}
		wg.Add(1)
		go func(f frame) {
			defer wg.Done()
			s.dispatch(conn, socketID, f)
		}(f)
	}
	wg.Wait()
}

// dispatch handles one event frame. Handlers run on a background context so
// a mutation already in flight completes even if the socket drops.
func (s *socketServer) dispatch(conn *socketConn, socketID string, f frame) {
	start := time.Now()
	status := statusOK
	var failure error

	respond := func(a ack) {
		if f.Seq > 0 {
			a.Seq = f.Seq
			conn.write(a)
		}
	}
	fail := func(err error) {
		status = statusError
		failure = err
		respond(ack{Status: statusError, Message: err.Error()})
	}

	ctx := context.Background()
	actor := actorFromPayload(f.Data).String()

	switch f.Event {
	case EventSyncTasks:
		views, err := s.listBoard(ctx)
		if err != nil {
			fail(err)
			break
		}
		respond(ack{Status: statusOK})
		conn.send(EventSyncTasks, views)

	case EventTaskCreate:
		var in domain.TaskInput
		if err := unmarshalPayload(f.Data, &in); err != nil {
			fail(err)
			break
		}
		task, err := s.tasks.Create(ctx, in, actor)
		if err != nil {
			fail(err)
			break
		}
		respond(ack{Status: statusOK, Task: &task})
		s.hub.Broadcast(EventTaskCreated, task)

	case EventTaskUpdate:
		var p updatePayload
		if err := unmarshalPayload(f.Data, &p); err != nil {
			fail(err)
			break
		}
		boardID, err := s.boardID(ctx)
		if err != nil {
			fail(err)
			break
		}
		task, err := s.tasks.Update(ctx, boardID, p.TaskID, p.Updates, actor)
		if err != nil {
			fail(err)
			break
		}
		respond(ack{Status: statusOK, Task: &task})
		s.hub.Broadcast(EventTaskUpdated, task)

	case EventTaskMove:
		var p movePayload
		if err := unmarshalPayload(f.Data, &p); err != nil {
			fail(err)
			break
		}
		boardID, err := s.boardID(ctx)
		if err != nil {
			fail(err)
			break
		}
		task, err := s.tasks.Move(ctx, boardID, p.TaskID, p.Column, actor)
		if err != nil {
			fail(err)
			break
		}
		respond(ack{Status: statusOK, Task: &task})
		s.hub.Broadcast(EventTaskMoved, task)

	case EventTaskReorder:
		var p reorderPayload
		if err := unmarshalPayload(f.Data, &p); err != nil {
			fail(err)
			break
		}
		boardID, err := s.boardID(ctx)
		if err != nil {
			fail(err)
			break
		}
		views, err := s.tasks.Reorder(ctx, boardID, p.Column, p.OrderedIDs, actor)
		if err != nil {
			fail(err)
			break
		}
		respond(ack{Status: statusOK})
		// Reorder resyncs everyone: per-task deltas cannot express the
		// resulting order without racing each other.
		s.hub.Broadcast(EventSyncTasks, views)

	case EventTaskDelete:
		taskID, err := deleteTarget(f.Data)
		if err != nil {
			fail(err)
			break
		}
		boardID, err := s.boardID(ctx)
		if err != nil {
			fail(err)
			break
		}
		if err := s.tasks.Delete(ctx, boardID, taskID, actor); err != nil {
			fail(err)
			break
		}
		respond(ack{Status: statusOK})
		// The deletion broadcast carries the bare task id, not an object.
		s.hub.Broadcast(EventTaskDeleted, taskID)

	case EventAttachmentAdd:
		var p attachPayload
		if err := unmarshalPayload(f.Data, &p); err != nil {
			fail(err)
			break
		}
		boardID, err := s.boardID(ctx)
		if err != nil {
			fail(err)
			break
		}
		att, err := s.tasks.AddAttachment(ctx, boardID, p.TaskID, p.File, actor)
		if err != nil {
			fail(err)
			break
		}
		respond(ack{Status: statusOK, Attachment: &att})
		s.hub.Broadcast(EventAttachmentAdded, attachmentAdded{TaskID: p.TaskID, Attachment: att})

	case EventUsersIdentify:
		// Notify-only: no ack, failures are swallowed after logging.
		if err := s.identify(ctx, socketID, f.Data); err != nil {
			status = statusError
			failure = err
		}

	default:
		fail(domain.ValidationError{Reason: "unknown event: " + f.Event})
	}

	fields := log.Fields{
		"event":       f.Event,
		"socket":      socketID,
		"status":      status,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if failure != nil {
		s.logger.WithFields(fields).WithError(failure).Warn("socket event failed")
		return
	}
	s.logger.WithFields(fields).Debug("socket event handled")
}

func (s *socketServer) identify(ctx context.Context, socketID string, data json.RawMessage) error {
	var p identifyPayload
	if err := unmarshalPayload(data, &p); err != nil {
		return err
	}
	ident := session.Identity{UserID: p.ID, Username: p.Username, Email: p.Email}
	if p.Token != "" && s.verifier != nil {
		verified, err := s.verifier.IdentityFromToken(p.Token)
		if err != nil {
			s.logger.WithField("socket", socketID).WithError(err).Warn("identity token rejected")
		} else {
			ident = verified
		}
	}
	s.hub.Identify(socketID, ident)
	if ident.UserID == "" {
		return nil
	}
	return s.users.RecordIdentity(ctx, domain.User{ID: ident.UserID, Username: ident.Username, Email: ident.Email})
}

func (s *socketServer) boardID(ctx context.Context) (string, error) {
	board, err := s.boards.Get(ctx)
	if err != nil {
		return "", err
	}
	return board.ID, nil
}

func (s *socketServer) listBoard(ctx context.Context) ([]domain.TaskView, error) {
	boardID, err := s.boardID(ctx)
	if err != nil {
		return nil, err
	}
	return s.tasks.ListAll(ctx, boardID)
}

func unmarshalPayload(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return domain.ValidationError{Reason: "missing payload"}
	}
	if err := sonic.ConfigStd.Unmarshal(data, v); err != nil {
		return domain.ValidationError{Reason: "malformed payload"}
	}
	return nil
}

// deleteTarget accepts either a bare task id string or an object payload.
func deleteTarget(data json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "", domain.ValidationError{Reason: "missing payload"}
	}
	if trimmed[0] == '"' {
		var id string
		if err := sonic.ConfigStd.Unmarshal(trimmed, &id); err != nil || id == "" {
			return "", domain.ValidationError{Reason: "malformed payload"}
		}
		return id, nil
	}
	var p deletePayload
	if err := sonic.ConfigStd.Unmarshal(trimmed, &p); err != nil || p.TaskID == "" {
		return "", domain.ValidationError{Reason: "malformed payload"}
	}
	return p.TaskID, nil
}
