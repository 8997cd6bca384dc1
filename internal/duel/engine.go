// Package duel implements the zone-based duel combat state machine. Combat
// is Rock-Paper-Scissors in disguise: each round both players pick an attack
// zone and a defended zone, an attack lands iff it targets a zone the
// defender left open, and every hit costs a fixed amount of HP.
package duel

import (
	"fmt"
	"strings"

	"chat-arcade/internal/constants"
	"chat-arcade/internal/rng"
)

type Zone string

const (
	ZoneHead Zone = "head"
	ZoneBody Zone = "body"
	ZoneLegs Zone = "legs"
)

// Zones in draw order for OpponentMove.
var Zones = []Zone{ZoneHead, ZoneBody, ZoneLegs}

type Status string

const (
	StatusPlaying    Status = "playing"
	StatusPlayer1Win Status = "player1_win"
	StatusPlayer2Win Status = "player2_win"
)

type State struct {
	Player1ID   int64  `json:"player1_id"`
	Player2ID   int64  `json:"player2_id"` // 0 for the built-in opponent
	Player1HP   int    `json:"player1_hp"`
	Player2HP   int    `json:"player2_hp"`
	CurrentTurn int64  `json:"current_turn"`
	Bet         int    `json:"bet"`
	Status      Status `json:"status"`
}

func (s State) IsPvE() bool {
	return s.Player2ID == constants.DuelOpponentID
}

func (s State) IsFinished() bool {
	return s.Status == StatusPlayer1Win || s.Status == StatusPlayer2Win
}

// WinnerID returns the winner, or 0 and false while the duel is running.
func (s State) WinnerID() (int64, bool) {
	switch s.Status {
	case StatusPlayer1Win:
		return s.Player1ID, true
	case StatusPlayer2Win:
		return s.Player2ID, true
	}
	return 0, false
}

func (s State) LoserID() (int64, bool) {
	switch s.Status {
	case StatusPlayer1Win:
		return s.Player2ID, true
	case StatusPlayer2Win:
		return s.Player1ID, true
	}
	return 0, false
}

type Engine struct {
	src rng.Source
}

func NewEngine(src rng.Source) *Engine {
	if src == nil {
		src = rng.Default()
	}
	return &Engine{src: src}
}

// NewDuel starts a duel with both players at full HP. Player 1 is the
// challenger.
func (e *Engine) NewDuel(challengerID, targetID int64, bet int) State {
	return State{
		Player1ID:   challengerID,
		Player2ID:   targetID,
		Player1HP:   constants.DuelMaxHP,
		Player2HP:   constants.DuelMaxHP,
		CurrentTurn: challengerID,
		Bet:         bet,
		Status:      StatusPlaying,
	}
}

// ResolveRound applies one simultaneous round of combat. Both attacks are
// evaluated against the pre-round HP and defended zones. Calling it on a
// finished duel returns the state unchanged.
func (e *Engine) ResolveRound(state State, p1Attack, p1Defend, p2Attack, p2Defend Zone) State {
	if state.IsFinished() {
		return state
	}

	p1Hits := p1Attack != p2Defend
	p2Hits := p2Attack != p1Defend

	p1HP := state.Player1HP
	p2HP := state.Player2HP

	if p2Hits {
		p1HP = max(0, state.Player1HP-constants.DuelDamage)
	}
	if p1Hits {
		p2HP = max(0, state.Player2HP-constants.DuelDamage)
	}

	state.Player1HP = p1HP
	state.Player2HP = p2HP
	state.Status = statusFor(p1HP, p2HP, state.Status)
	return state
}

// CheckTermination re-evaluates the finish condition after HP was changed
// outside combat (item effects and the like).
func (e *Engine) CheckTermination(state State) State {
	if state.IsFinished() {
		return state
	}
	state.Status = statusFor(state.Player1HP, state.Player2HP, state.Status)
	return state
}

// The challenger takes a double KO. Long-standing game behavior players
// rely on; do not "fix" without a product decision.
func statusFor(p1HP, p2HP int, current Status) Status {
	switch {
	case p1HP <= 0 && p2HP <= 0:
		return StatusPlayer1Win
	case p1HP <= 0:
		return StatusPlayer2Win
	case p2HP <= 0:
		return StatusPlayer1Win
	}
	return current
}

// OpponentMove draws the automated opponent's attack and defended zones,
// each uniform over the three zones.
func (e *Engine) OpponentMove() (attack, defend Zone) {
	attack = Zones[e.src.Index(len(Zones))]
	defend = Zones[e.src.Index(len(Zones))]
	return attack, defend
}

// HPBar renders a fixed-width textual gauge like "[████░░░] 60%". The floor
// mapping for both the percentage and the filled segment count is observable
// output and must not change.
func HPBar(hp, maxHP int) string {
	if hp < 0 {
		hp = 0
	}
	if hp > maxHP {
		hp = maxHP
	}

	percentage := 0
	filled := 0
	if maxHP > 0 {
		percentage = hp * 100 / maxHP
		filled = hp * constants.HPBarSegments / maxHP
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", constants.HPBarSegments-filled)
	return fmt.Sprintf("[%s] %d%%", bar, percentage)
}
