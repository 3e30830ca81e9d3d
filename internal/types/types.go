package types

import "github.com/buzzboard/buzzboard-backend/internal/engine"

// ClientMessage is the single envelope for all client -> server commands.
// Type selects the command; unused fields are omitted on the wire.
type ClientMessage struct {
	Type       string           `json:"type"`
	GameCode   string           `json:"gameCode,omitempty"`
	Role       string           `json:"role,omitempty"`     // register_connection: "host" | "tv" | "player"
	PlayerID   string           `json:"playerId,omitempty"`
	IsReady    bool             `json:"isReady,omitempty"`
	Player     *engine.Player   `json:"player,omitempty"`   // join_game
	Question   *engine.Question `json:"question,omitempty"` // select_question (only the id is trusted)
	QuestionID string           `json:"questionId,omitempty"`
	NewScore   int              `json:"newScore,omitempty"` // update_score
}

const (
	MsgRegisterConnection = "register_connection"
	MsgJoinGame           = "join_game"
	MsgPlayerReady        = "player_ready"
	MsgStartGame          = "start_game"
	MsgEndGame            = "end_game"
	MsgResetGame          = "reset_game"
	MsgSelectQuestion     = "select_question"
	MsgQuestionAnswered   = "question_answered"
	MsgUpdateScore        = "update_score"
	MsgBuzz               = "buzz"

	MsgGameStateUpdate = "game_state_update"
	MsgError           = "error"
)

type ServerMessage struct {
	Type    string        `json:"type"` // "game_state_update" | "error"
	Version int           `json:"version,omitempty"`
	State   *engine.State `json:"state,omitempty"`
	Error   string        `json:"error,omitempty"`
}
