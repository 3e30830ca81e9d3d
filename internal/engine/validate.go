package engine

import (
	"slices"
	"unicode/utf8"
)

const (
	minNameLen = 2
	maxNameLen = 20
)

// Validate decides whether cmd is legal against s without computing the
// resulting state. Reduce must only ever see commands that pass here.
func Validate(s State, cmd Command) error {
	switch cmd.Type {
	case CmdStartGame, CmdEndGame, CmdResetGame:
		if cmd.Role != RoleHost {
			return ErrRoleNotAllowed
		}
		return nil

	case CmdAddPlayer:
		if cmd.Role != RolePlayer {
			return ErrRoleNotAllowed
		}
		return validateJoin(s, cmd.Player)

	case CmdPlayerReady:
		if cmd.Role != RolePlayer {
			return ErrRoleNotAllowed
		}
		p, ok := PlayerByID(s, cmd.PlayerID)
		if !ok {
			return ErrUnknownPlayer
		}
		if cmd.IsReady && !p.IsReady {
			// Color may have been claimed while this player sat out.
			if holder, taken := colorHolder(s, p.Color); taken && holder.ID != p.ID {
				return ErrColorTaken
			}
		}
		return nil

	case CmdSelectQuestion:
		if cmd.Role != RoleHost {
			return ErrRoleNotAllowed
		}
		if s.CurrentQuestion != nil {
			return ErrQuestionActive
		}
		q, ok := QuestionByID(s, cmd.QuestionID)
		if !ok {
			return ErrUnknownQuestion
		}
		if q.IsAnswered {
			return ErrAlreadyAnswered
		}
		return nil

	case CmdQuestionAnswered:
		if cmd.Role != RoleHost {
			return ErrRoleNotAllowed
		}
		if s.CurrentQuestion == nil {
			return ErrNoActiveQuestion
		}
		if cmd.QuestionID != s.CurrentQuestion.ID {
			return ErrUnknownQuestion
		}
		return nil

	case CmdUpdateScore:
		if cmd.Role != RoleHost {
			return ErrRoleNotAllowed
		}
		if _, ok := PlayerByID(s, cmd.PlayerID); !ok {
			return ErrUnknownPlayer
		}
		return nil

	case CmdRecordBuzz:
		if cmd.Role != RolePlayer {
			return ErrRoleNotAllowed
		}
		if !s.IsActive {
			return ErrGameInactive
		}
		if s.CurrentQuestion == nil {
			return ErrNoActiveQuestion
		}
		if _, ok := PlayerByID(s, cmd.PlayerID); !ok {
			return ErrUnknownPlayer
		}
		if slices.Contains(s.BuzzOrder, cmd.PlayerID) {
			return ErrAlreadyBuzzed
		}
		return nil

	case CmdSetHostConnected, CmdSetTVConnected:
		if cmd.Role != RoleSystem {
			return ErrRoleNotAllowed
		}
		return nil

	default:
		return ErrUnsupportedCommand
	}
}

func validateJoin(s State, p Player) error {
	if p.ID == "" {
		return ErrUnknownPlayer
	}
	if n := utf8.RuneCountInString(p.Name); n < minNameLen || n > maxNameLen {
		return ErrBadName
	}
	if !ValidColor(p.Color) {
		return ErrBadColor
	}
	// A rejoin may keep its own color; anyone else's ready color is off-limits.
	if holder, taken := colorHolder(s, p.Color); taken && holder.ID != p.ID {
		return ErrColorTaken
	}
	return nil
}
