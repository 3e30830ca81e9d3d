package engine

type Role string

const (
	RoleHost   Role = "host"
	RoleTV     Role = "tv"
	RolePlayer Role = "player"
	// RoleSystem tags presence transitions issued by the session registry
	// itself; no network command ever carries it.
	RoleSystem Role = "system"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleHost, RoleTV, RolePlayer:
		return Role(s), true
	default:
		return "", false
	}
}

type CommandType string

const (
	CmdStartGame        CommandType = "StartGame"
	CmdEndGame          CommandType = "EndGame"
	CmdResetGame        CommandType = "ResetGame"
	CmdAddPlayer        CommandType = "AddPlayer"
	CmdPlayerReady      CommandType = "PlayerReady"
	CmdSelectQuestion   CommandType = "SelectQuestion"
	CmdQuestionAnswered CommandType = "QuestionAnswered"
	CmdUpdateScore      CommandType = "UpdateScore"
	CmdRecordBuzz       CommandType = "RecordBuzz"
	CmdSetHostConnected CommandType = "SetHostConnected"
	CmdSetTVConnected   CommandType = "SetTVConnected"
)

type Command struct {
	Type       CommandType
	Role       Role
	Player     Player // AddPlayer
	PlayerID   string // PlayerReady, UpdateScore, RecordBuzz
	QuestionID string // SelectQuestion, QuestionAnswered
	IsReady    bool   // PlayerReady
	NewScore   int    // UpdateScore
	Connected  bool   // SetHostConnected, SetTVConnected
}
