// Package ws adapts the WebSocket transport to the session command
// pipeline: it decodes wire messages, maps them to engine commands, and
// forwards them tagged with the connection's id. All game rules live
// behind the session actor; this layer only rejects malformed frames.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/buzzboard/buzzboard-backend/internal/engine"
	"github.com/buzzboard/buzzboard-backend/internal/hub"
	"github.com/buzzboard/buzzboard-backend/internal/session"
	"github.com/buzzboard/buzzboard-backend/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 5 * time.Minute
)

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetSession{Code: code, Reply: reply}
		sess := <-reply
		if sess == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		registered := false

		defer func() {
			if registered {
				sess.Inbox() <- session.Leave{ConnID: connID}
			}
		}()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				log.Debug("malformed frame", zap.String("conn_id", connID), zap.Error(err))
				writeError(r.Context(), conn, "bad json")
				continue
			}

			if cm.Type == types.MsgRegisterConnection {
				// One registration per connection: the session owns and
				// eventually closes the outbox, so a second Register must
				// never hand it a channel that may already be closed.
				if registered {
					writeError(r.Context(), conn, "already registered")
					continue
				}
				role, ok := engine.ParseRole(cm.Role)
				if !ok {
					writeError(r.Context(), conn, "unknown role")
					continue
				}
				out := make(chan session.Snapshot, 8)
				go writeSnapshots(writeCtx, conn, out, log)
				sess.Inbox() <- session.Register{
					ConnID:   connID,
					Role:     role,
					PlayerID: cm.PlayerID,
					Outbox:   out,
				}
				registered = true
				continue
			}

			if !registered {
				writeError(r.Context(), conn, "not registered")
				continue
			}

			cmd, ok := toCommand(cm)
			if !ok {
				log.Debug("unknown message type", zap.String("type", cm.Type), zap.String("conn_id", connID))
				writeError(r.Context(), conn, "unknown type")
				continue
			}

			sess.Inbox() <- session.FromClient{ConnID: connID, Cmd: cmd}
		}
	}
}

// writeSnapshots serializes committed snapshots to one connection. A write
// error just stops the current write; the reader notices the broken
// connection on its own. When the session closes the outbox (slow-drop or
// departure) the connection is torn down so the reader unblocks too.
func writeSnapshots(ctx context.Context, conn *websocket.Conn, out <-chan session.Snapshot, log *zap.Logger) {
	for snap := range out {
		msg := types.ServerMessage{Type: types.MsgGameStateUpdate, Version: snap.Version, State: &snap.State}
		payload, err := json.Marshal(msg)
		if err != nil {
			log.Error("marshal snapshot", zap.Error(err))
			continue
		}
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		_ = conn.Write(wctx, websocket.MessageText, payload)
		cancel()
	}
	_ = conn.Close(websocket.StatusTryAgainLater, "connection dropped")
}

// toCommand maps a wire message to an engine command. The sender's role is
// deliberately left blank; the session fills it from its registry.
func toCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case types.MsgJoinGame:
		if m.Player == nil {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdAddPlayer, Player: *m.Player}, true
	case types.MsgPlayerReady:
		return engine.Command{Type: engine.CmdPlayerReady, PlayerID: m.PlayerID, IsReady: m.IsReady}, true
	case types.MsgStartGame:
		return engine.Command{Type: engine.CmdStartGame}, true
	case types.MsgEndGame:
		return engine.Command{Type: engine.CmdEndGame}, true
	case types.MsgResetGame:
		return engine.Command{Type: engine.CmdResetGame}, true
	case types.MsgSelectQuestion:
		id := m.QuestionID
		if id == "" && m.Question != nil {
			id = m.Question.ID
		}
		if id == "" {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdSelectQuestion, QuestionID: id}, true
	case types.MsgQuestionAnswered:
		if m.QuestionID == "" {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdQuestionAnswered, QuestionID: m.QuestionID}, true
	case types.MsgUpdateScore:
		return engine.Command{Type: engine.CmdUpdateScore, PlayerID: m.PlayerID, NewScore: m.NewScore}, true
	case types.MsgBuzz:
		return engine.Command{Type: engine.CmdRecordBuzz, PlayerID: m.PlayerID}, true
	default:
		return engine.Command{}, false
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: types.MsgError, Error: msg})
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
