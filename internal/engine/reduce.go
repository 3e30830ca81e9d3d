package engine

// Reduce applies a validated command and returns the next state. It is a
// pure function: same state + same command always yields the same result,
// and the input state is never mutated. Replaying an accepted command
// sequence from NewState reproduces the session exactly.
func Reduce(s State, cmd Command) State {
	next := s

	switch cmd.Type {
	case CmdStartGame:
		// Resuming mid-set is allowed: scores and board are untouched.
		next.IsActive = true

	case CmdEndGame:
		next.IsActive = false

	case CmdResetGame:
		// Back to an empty lobby on the same code; whoever is watching
		// stays connected.
		next.IsActive = false
		next.Players = []Player{}
		next.CurrentQuestion = nil
		next.BuzzOrder = []string{}
		next.Board = resetBoard(s.Board)
		next.Timer = Timer{Seconds: s.Timer.DefaultDuration, DefaultDuration: s.Timer.DefaultDuration}

	case CmdAddPlayer:
		next.Players = upsertPlayer(s.Players, cmd.Player)

	case CmdPlayerReady:
		next.Players = clonePlayers(s.Players)
		for i := range next.Players {
			if next.Players[i].ID == cmd.PlayerID {
				next.Players[i].IsReady = cmd.IsReady
			}
		}

	case CmdSelectQuestion:
		next.Board = markQuestion(s.Board, cmd.QuestionID, func(q *Question) {
			q.IsRevealed = true
		})
		if q, ok := QuestionByID(next, cmd.QuestionID); ok {
			next.CurrentQuestion = &q
		}
		next.BuzzOrder = []string{}

	case CmdQuestionAnswered:
		next.Board = markQuestion(s.Board, cmd.QuestionID, func(q *Question) {
			q.IsRevealed = false
			q.IsAnswered = true
		})
		next.CurrentQuestion = nil
		next.BuzzOrder = []string{}

	case CmdUpdateScore:
		next.Players = clonePlayers(s.Players)
		for i := range next.Players {
			if next.Players[i].ID == cmd.PlayerID {
				next.Players[i].Score = cmd.NewScore
			}
		}

	case CmdRecordBuzz:
		order := make([]string, len(s.BuzzOrder), len(s.BuzzOrder)+1)
		copy(order, s.BuzzOrder)
		next.BuzzOrder = append(order, cmd.PlayerID)

	case CmdSetHostConnected:
		next.Connections.HostConnected = cmd.Connected

	case CmdSetTVConnected:
		next.Connections.TVConnected = cmd.Connected
	}

	return next
}

// upsertPlayer inserts a new ready player or refreshes an existing record
// in place. A rejoin keeps the accumulated score: player identity is
// durable across reconnects.
func upsertPlayer(players []Player, p Player) []Player {
	out := clonePlayers(players)
	for i := range out {
		if out[i].ID == p.ID {
			out[i].Name = p.Name
			out[i].Color = p.Color
			out[i].IsReady = true
			return out
		}
	}
	return append(out, Player{
		ID:      p.ID,
		Name:    p.Name,
		Color:   p.Color,
		Score:   0,
		IsReady: true,
	})
}

func markQuestion(board []Category, id string, mark func(*Question)) []Category {
	out := cloneBoard(board)
	for ci := range out {
		for qi := range out[ci].Questions {
			if out[ci].Questions[qi].ID == id {
				mark(&out[ci].Questions[qi])
				return out
			}
		}
	}
	return out
}

func resetBoard(board []Category) []Category {
	out := cloneBoard(board)
	for ci := range out {
		for qi := range out[ci].Questions {
			out[ci].Questions[qi].IsRevealed = false
			out[ci].Questions[qi].IsAnswered = false
		}
	}
	return out
}
