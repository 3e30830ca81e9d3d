package engine

import "slices"

type Color string

const (
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorPurple Color = "purple"
)

// Colors is the full roster palette; one ready player per color.
var Colors = []Color{ColorGreen, ColorBlue, ColorRed, ColorYellow, ColorPurple}

func ValidColor(c Color) bool {
	return slices.Contains(Colors, c)
}

type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   Color  `json:"color"`
	Score   int    `json:"score"`
	IsReady bool   `json:"isReady"`
}

type Question struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Amount     int    `json:"amount"`
	Value      int    `json:"value"`
	Prompt     string `json:"question"`
	Answer     string `json:"answer"`
	IsRevealed bool   `json:"isRevealed"`
	IsAnswered bool   `json:"isAnswered"`
}

type Category struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// Timer is carried in snapshots for clients but never ticked server-side;
// clearing a question is a host command, not a timeout.
type Timer struct {
	IsActive        bool `json:"isActive"`
	Seconds         int  `json:"seconds"`
	DefaultDuration int  `json:"defaultDuration"`
}

type Connections struct {
	HostConnected bool `json:"hostConnected"`
	TVConnected   bool `json:"tvConnected"`
}

type State struct {
	GameCode        string      `json:"gameCode"`
	IsActive        bool        `json:"isActive"`
	Players         []Player    `json:"players"`
	CurrentQuestion *Question   `json:"currentQuestion"`
	BuzzOrder       []string    `json:"buzzOrder"`
	Board           []Category  `json:"board"`
	Timer           Timer       `json:"timer"`
	Connections     Connections `json:"connections"`
}

const defaultTimerSeconds = 5

func NewState(gameCode string, board []Category) State {
	return State{
		GameCode:  gameCode,
		IsActive:  false,
		Players:   []Player{},
		BuzzOrder: []string{},
		Board:     cloneBoard(board),
		Timer:     Timer{Seconds: defaultTimerSeconds, DefaultDuration: defaultTimerSeconds},
	}
}

// PlayerByID returns a copy of the player record, if present.
func PlayerByID(s State, id string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// QuestionByID returns a copy of the board question, if present.
func QuestionByID(s State, id string) (Question, bool) {
	for _, cat := range s.Board {
		for _, q := range cat.Questions {
			if q.ID == id {
				return q, true
			}
		}
	}
	return Question{}, false
}

func colorHolder(s State, c Color) (Player, bool) {
	for _, p := range s.Players {
		if p.IsReady && p.Color == c {
			return p, true
		}
	}
	return Player{}, false
}

// Reduce never mutates the incoming state, so anything it touches gets
// copied first. Snapshots handed to the broadcast path alias the committed
// state and must stay stable.

func clonePlayers(ps []Player) []Player {
	return slices.Clone(ps)
}

func cloneBoard(board []Category) []Category {
	out := make([]Category, len(board))
	for i, cat := range board {
		out[i] = Category{Name: cat.Name, Questions: slices.Clone(cat.Questions)}
	}
	return out
}
