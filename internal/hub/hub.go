// Package hub maps game codes to their session actors. The hub is itself
// an actor so session creation and lookup never race.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/buzzboard/buzzboard-backend/internal/engine"
	"github.com/buzzboard/buzzboard-backend/internal/session"
)

type HubMsg interface{ isHubMsg() }

type CreateSession struct {
	Code  string
	State engine.State
	Reply chan *session.Session
}

type GetSession struct {
	Code  string
	Reply chan *session.Session
}

type EnsureSession struct {
	Code  string
	State engine.State // only used if creation happens
	Reply chan *session.Session
}

type RemoveSession struct {
	Code string
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (EnsureSession) isHubMsg() {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				if s := h.sessions[msg.Code]; s != nil {
					msg.Reply <- s
					break
				}
				msg.Reply <- h.spawn(msg.Code, msg.State)

			case GetSession:
				msg.Reply <- h.sessions[msg.Code] // May be nil

			case EnsureSession:
				if s := h.sessions[msg.Code]; s != nil {
					msg.Reply <- s
					break
				}
				msg.Reply <- h.spawn(msg.Code, msg.State)

			case RemoveSession:
				delete(h.sessions, msg.Code)

			case ShutdownHub:
				for _, s := range h.sessions {
					s.Inbox() <- session.Shutdown{}
				}
				clear(h.sessions)
				h.cancel()
			}
		}
	}
}

func (h *Hub) spawn(code string, state engine.State) *session.Session {
	s := session.New(h.ctx, state, h.log)
	h.sessions[code] = s
	h.log.Info("session created", zap.String("game_code", code))
	return s
}
