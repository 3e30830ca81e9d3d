package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/buzzboard/buzzboard-backend/internal/engine"
	"github.com/buzzboard/buzzboard-backend/internal/hub"
	"github.com/buzzboard/buzzboard-backend/internal/session"
	"github.com/buzzboard/buzzboard-backend/internal/types"
)

func testBoard() []engine.Category {
	return []engine.Category{
		{
			Name: "History",
			Questions: []engine.Question{
				{ID: "hist-100", Category: "History", Amount: 100, Value: 100, Prompt: "q1", Answer: "a1"},
			},
		},
	}
}

// newGameServer starts a websocket endpoint backed by a session for code
// AB12CD and returns the dialable URL.
func newGameServer(t *testing.T) string {
	t.Helper()

	h := hub.NewHub(context.Background(), zap.NewNop())
	reply := make(chan *session.Session, 1)
	h.Inbox() <- hub.EnsureSession{Code: "AB12CD", State: engine.NewState("AB12CD", testBoard()), Reply: reply}
	if <-reply == nil {
		t.Fatalf("failed to create session")
	}

	srv := httptest.NewServer(Handler(h, zap.NewNop()))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/?code=AB12CD"
}

func dial(ctx context.Context, t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") })
	return conn
}

func sendMsg(ctx context.Context, t *testing.T, conn *websocket.Conn, msg types.ClientMessage) {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// recvMsgOfType reads frames until one of the wanted type arrives,
// skipping interleaved snapshots or errors of other kinds.
func recvMsgOfType(ctx context.Context, t *testing.T, conn *websocket.Conn, want string) types.ServerMessage {
	t.Helper()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read while waiting for %q: %v", want, err)
		}
		var sm types.ServerMessage
		if err := json.Unmarshal(data, &sm); err != nil {
			t.Fatalf("unmarshal server frame: %v", err)
		}
		if sm.Type == want {
			return sm
		}
	}
}

func TestHandler_RegisterThenCommandFlow(t *testing.T) {
	url := newGameServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(ctx, t, url)

	sendMsg(ctx, t, conn, types.ClientMessage{Type: types.MsgRegisterConnection, Role: "host"})
	snap := recvMsgOfType(ctx, t, conn, types.MsgGameStateUpdate)
	if snap.State == nil || snap.State.GameCode != "AB12CD" {
		t.Fatalf("registration snapshot missing or wrong session: %+v", snap)
	}

	sendMsg(ctx, t, conn, types.ClientMessage{Type: types.MsgStartGame})
	for {
		snap = recvMsgOfType(ctx, t, conn, types.MsgGameStateUpdate)
		if snap.State.IsActive {
			break
		}
	}
}

// A second register_connection frame on the same websocket must be
// rejected without disturbing the session or the original registration.
func TestHandler_DuplicateRegisterRejected(t *testing.T) {
	url := newGameServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(ctx, t, url)

	sendMsg(ctx, t, conn, types.ClientMessage{Type: types.MsgRegisterConnection, Role: "host"})
	_ = recvMsgOfType(ctx, t, conn, types.MsgGameStateUpdate)

	sendMsg(ctx, t, conn, types.ClientMessage{Type: types.MsgRegisterConnection, Role: "player", PlayerID: "p1"})
	errFrame := recvMsgOfType(ctx, t, conn, types.MsgError)
	if errFrame.Error != "already registered" {
		t.Fatalf("want \"already registered\", got %q", errFrame.Error)
	}

	// The original host registration still holds and the session still
	// processes commands.
	sendMsg(ctx, t, conn, types.ClientMessage{Type: types.MsgStartGame})
	for {
		snap := recvMsgOfType(ctx, t, conn, types.MsgGameStateUpdate)
		if snap.State.IsActive {
			break
		}
	}
}

func TestHandler_CommandBeforeRegisterRejected(t *testing.T) {
	url := newGameServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(ctx, t, url)

	sendMsg(ctx, t, conn, types.ClientMessage{Type: types.MsgBuzz, PlayerID: "p1"})
	errFrame := recvMsgOfType(ctx, t, conn, types.MsgError)
	if errFrame.Error != "not registered" {
		t.Fatalf("want \"not registered\", got %q", errFrame.Error)
	}
}

func TestHandler_UnknownCode(t *testing.T) {
	url := newGameServer(t)
	url = strings.Replace(url, "AB12CD", "NOPE42", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, _, err := websocket.Dial(ctx, url, nil); err == nil {
		t.Fatalf("expected dial to fail for unknown game code")
	}
}

func TestToCommand(t *testing.T) {
	cases := []struct {
		name string
		msg  types.ClientMessage
		want engine.Command
		ok   bool
	}{
		{
			name: "join_game",
			msg:  types.ClientMessage{Type: types.MsgJoinGame, Player: &engine.Player{ID: "p1", Name: "Alice", Color: engine.ColorGreen}},
			want: engine.Command{Type: engine.CmdAddPlayer, Player: engine.Player{ID: "p1", Name: "Alice", Color: engine.ColorGreen}},
			ok:   true,
		},
		{
			name: "join_game without player payload",
			msg:  types.ClientMessage{Type: types.MsgJoinGame},
			ok:   false,
		},
		{
			name: "player_ready",
			msg:  types.ClientMessage{Type: types.MsgPlayerReady, PlayerID: "p1", IsReady: true},
			want: engine.Command{Type: engine.CmdPlayerReady, PlayerID: "p1", IsReady: true},
			ok:   true,
		},
		{
			name: "start_game",
			msg:  types.ClientMessage{Type: types.MsgStartGame},
			want: engine.Command{Type: engine.CmdStartGame},
			ok:   true,
		},
		{
			name: "select_question by id",
			msg:  types.ClientMessage{Type: types.MsgSelectQuestion, QuestionID: "hist-100"},
			want: engine.Command{Type: engine.CmdSelectQuestion, QuestionID: "hist-100"},
			ok:   true,
		},
		{
			name: "select_question with embedded question object",
			msg:  types.ClientMessage{Type: types.MsgSelectQuestion, Question: &engine.Question{ID: "hist-200", Answer: "ignored"}},
			want: engine.Command{Type: engine.CmdSelectQuestion, QuestionID: "hist-200"},
			ok:   true,
		},
		{
			name: "select_question without id",
			msg:  types.ClientMessage{Type: types.MsgSelectQuestion},
			ok:   false,
		},
		{
			name: "question_answered",
			msg:  types.ClientMessage{Type: types.MsgQuestionAnswered, QuestionID: "hist-100"},
			want: engine.Command{Type: engine.CmdQuestionAnswered, QuestionID: "hist-100"},
			ok:   true,
		},
		{
			name: "update_score",
			msg:  types.ClientMessage{Type: types.MsgUpdateScore, PlayerID: "p1", NewScore: -200},
			want: engine.Command{Type: engine.CmdUpdateScore, PlayerID: "p1", NewScore: -200},
			ok:   true,
		},
		{
			name: "buzz",
			msg:  types.ClientMessage{Type: types.MsgBuzz, PlayerID: "p1"},
			want: engine.Command{Type: engine.CmdRecordBuzz, PlayerID: "p1"},
			ok:   true,
		},
		{
			name: "unknown type",
			msg:  types.ClientMessage{Type: "launch_missiles"},
			ok:   false,
		},
		{
			name: "register is not a command",
			msg:  types.ClientMessage{Type: types.MsgRegisterConnection, Role: "host"},
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toCommand(tc.msg)
			if ok != tc.ok {
				t.Fatalf("toCommand ok: got %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("toCommand: got %+v, want %+v", got, tc.want)
			}
		})
	}
}

// The mapping layer must never assign a role; the session registry does.
func TestToCommand_NeverSetsRole(t *testing.T) {
	msgs := []types.ClientMessage{
		{Type: types.MsgStartGame},
		{Type: types.MsgBuzz, PlayerID: "p1"},
		{Type: types.MsgJoinGame, Player: &engine.Player{ID: "p1", Name: "Alice", Color: engine.ColorRed}},
	}
	for _, m := range msgs {
		if cmd, ok := toCommand(m); ok && cmd.Role != "" {
			t.Fatalf("%s: role must be left blank, got %q", m.Type, cmd.Role)
		}
	}
}
