// Package session runs one actor goroutine per game code. The actor is
// the single serialization point for a session: it owns the canonical
// engine.State, resolves sender identity for incoming commands, applies
// them one at a time, and fans the committed snapshot out to every
// registered connection.
package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/buzzboard/buzzboard-backend/internal/engine"
)

type Msg interface{ isSessionMsg() }

// Register associates a connection with the session. For host/tv roles the
// matching presence flag is flipped through the reducer; the new
// connection receives the current snapshot immediately. Outbox must be a
// fresh open channel used by no other registration: the session takes
// ownership and is the only party that closes it, exactly once, when the
// connection is dropped or leaves. Re-registering a live ConnID updates
// role and identity but keeps the original outbox.
type Register struct {
	ConnID   string
	Role     engine.Role
	PlayerID string
	Outbox   chan Snapshot
}

func (Register) isSessionMsg() {}

// Leave drops a connection. Player records survive: a disconnect is a
// presence change, never data loss.
type Leave struct{ ConnID string }

func (Leave) isSessionMsg() {}

// FromClient carries a decoded command from the transport. The sender's
// role is taken from the registry, never from the payload.
type FromClient struct {
	ConnID string
	Cmd    engine.Command
}

func (FromClient) isSessionMsg() {}

type GetView struct {
	Reply chan View
}

func (GetView) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type Snapshot struct {
	Version int
	State   engine.State
}

// View reflects internal state for tests and the HTTP read endpoint
// without racing the actor.
type View struct {
	Version    int
	NumClients int
	State      engine.State
}

type client struct {
	role     engine.Role
	playerID string
	outbox   chan Snapshot
}

type Session struct {
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]client
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, initial engine.State, log *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)

	s := &Session{
		inbox:   make(chan Msg, 64),
		state:   initial,
		version: 0,
		clients: make(map[string]client),
		log:     log.With(zap.String("game_code", initial.GameCode)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go s.loop()
	return s
}

// Inbox exposes the actor mailbox to the transport layer and tests.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Register:
				s.handleRegister(msg)

			case Leave:
				s.handleLeave(msg)

			case FromClient:
				s.handleCommand(msg)

			case GetView:
				msg.Reply <- View{
					Version:    s.version,
					NumClients: len(s.clients),
					State:      s.state,
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) handleRegister(msg Register) {
	c := client{role: msg.Role, playerID: msg.PlayerID, outbox: msg.Outbox}
	if old, ok := s.clients[msg.ConnID]; ok {
		// A live connection re-registering keeps its original outbox; a
		// second channel for the same connection would strand its writer.
		c.outbox = old.outbox
	}
	s.clients[msg.ConnID] = c

	// Late joiners get the current snapshot before any presence change
	// lands, so they never render from nothing.
	select {
	case c.outbox <- Snapshot{Version: s.version, State: s.state}:
	default:
		s.log.Warn("dropped unresponsive client at registration", zap.String("conn_id", msg.ConnID))
		s.removeClient(msg.ConnID)
		return
	}

	s.syncPresence(msg.Role)

	s.log.Debug("connection registered",
		zap.String("conn_id", msg.ConnID),
		zap.String("role", string(msg.Role)),
		zap.String("player_id", msg.PlayerID),
	)
}

func (s *Session) handleLeave(msg Leave) {
	c, ok := s.clients[msg.ConnID]
	if !ok {
		return
	}
	s.removeClient(msg.ConnID)

	s.log.Debug("connection left", zap.String("conn_id", msg.ConnID), zap.String("role", string(c.role)))
}

// removeClient is the single removal path: it closes the outbox exactly
// once and re-derives presence for the departed role. Every way a
// connection can go away (leave, slow-drop, failed registration) funnels
// through here so none of the bookkeeping can be skipped.
func (s *Session) removeClient(connID string) {
	c, ok := s.clients[connID]
	if !ok {
		return
	}
	delete(s.clients, connID)
	close(c.outbox)
	s.syncPresence(c.role)
}

// syncPresence re-derives a role's presence flag from the registry and
// commits the change when the flag is stale. Presence only clears when the
// last connection of that role is gone; a host with a second tab open
// stays "connected".
func (s *Session) syncPresence(role engine.Role) {
	var cmdType engine.CommandType
	var current bool
	switch role {
	case engine.RoleHost:
		cmdType, current = engine.CmdSetHostConnected, s.state.Connections.HostConnected
	case engine.RoleTV:
		cmdType, current = engine.CmdSetTVConnected, s.state.Connections.TVConnected
	default:
		return
	}

	connected := s.anyWithRole(role)
	if connected == current {
		return
	}
	s.applySystem(engine.Command{Type: cmdType, Role: engine.RoleSystem, Connected: connected})
}

func (s *Session) handleCommand(msg FromClient) {
	c, ok := s.clients[msg.ConnID]
	if !ok {
		s.log.Debug("command from unregistered connection", zap.String("conn_id", msg.ConnID))
		return
	}

	cmd := msg.Cmd
	cmd.Role = c.role

	if c.role == engine.RolePlayer {
		switch {
		case c.playerID != "":
			// The registered identity wins over whatever the payload claims.
			cmd.PlayerID = c.playerID
			if cmd.Type == engine.CmdAddPlayer {
				cmd.Player.ID = c.playerID
			}
		case cmd.Type == engine.CmdAddPlayer && cmd.Player.ID != "":
			// Connection registered before the client knew its identity;
			// adopt it from the join and pin it for later commands.
			c.playerID = cmd.Player.ID
			s.clients[msg.ConnID] = c
		default:
			// No identity yet: an anonymous connection may not act as an
			// arbitrary existing player.
			s.log.Debug("player command without identity",
				zap.String("conn_id", msg.ConnID),
				zap.String("type", string(cmd.Type)),
			)
			return
		}
	}

	newState, err := engine.Apply(s.state, cmd)
	if err != nil {
		// Fail closed, no side channel: the client simply sees no change.
		s.log.Debug("command rejected",
			zap.String("type", string(cmd.Type)),
			zap.String("role", string(cmd.Role)),
			zap.Error(err),
		)
		return
	}

	s.commit(newState)
}

// applySystem routes registry-originated presence transitions through the
// same validate/reduce/commit path as client commands.
func (s *Session) applySystem(cmd engine.Command) {
	newState, err := engine.Apply(s.state, cmd)
	if err != nil {
		s.log.Error("system command rejected", zap.String("type", string(cmd.Type)), zap.Error(err))
		return
	}
	s.commit(newState)
}

func (s *Session) commit(newState engine.State) {
	s.state = newState
	s.version++
	s.broadcast(Snapshot{Version: s.version, State: s.state})
}

func (s *Session) broadcast(snap Snapshot) {
	// Slow or dead connections are dropped rather than stalling the
	// command pipeline.
	var dropped []string
	for id, c := range s.clients {
		select {
		case c.outbox <- snap:
		default:
			dropped = append(dropped, id)
		}
	}

	// Removing a host/tv connection may itself commit a presence change,
	// which re-enters broadcast; doing it after the delivery loop keeps
	// versions arriving in order for the survivors.
	for _, id := range dropped {
		s.log.Warn("dropped slow client", zap.String("conn_id", id))
		s.removeClient(id)
	}
}

func (s *Session) anyWithRole(role engine.Role) bool {
	for _, c := range s.clients {
		if c.role == role {
			return true
		}
	}
	return false
}

func (s *Session) shutdown() {
	for id, c := range s.clients {
		close(c.outbox)
		delete(s.clients, id)
	}
	s.cancel()
}
