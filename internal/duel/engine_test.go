package duel_test

import (
	"testing"

	"chat-arcade/internal/duel"
	"chat-arcade/internal/rng"
)

func TestNewDuel(t *testing.T) {
	e := duel.NewEngine(nil)
	state := e.NewDuel(100, 200, 50)

	if state.Player1HP != 100 || state.Player2HP != 100 {
		t.Errorf("both players should start at 100 HP, got %d/%d", state.Player1HP, state.Player2HP)
	}
	if state.Status != duel.StatusPlaying {
		t.Errorf("status: got %q, want playing", state.Status)
	}
	if state.CurrentTurn != 100 {
		t.Errorf("challenger moves first: got %d, want 100", state.CurrentTurn)
	}
	if state.IsPvE() {
		t.Error("duel against player 200 is not PvE")
	}
}

func TestResolveRound_HitAndMiss(t *testing.T) {
	e := duel.NewEngine(nil)

	tests := []struct {
		name               string
		p1Atk, p1Def       duel.Zone
		p2Atk, p2Def       duel.Zone
		wantP1HP, wantP2HP int
	}{
		{
			name:  "p1 hits open zone, p2 blocked",
			p1Atk: duel.ZoneHead, p1Def: duel.ZoneHead,
			p2Atk: duel.ZoneHead, p2Def: duel.ZoneBody,
			wantP1HP: 100, wantP2HP: 75,
		},
		{
			name:  "both blocked",
			p1Atk: duel.ZoneHead, p1Def: duel.ZoneLegs,
			p2Atk: duel.ZoneLegs, p2Def: duel.ZoneHead,
			wantP1HP: 100, wantP2HP: 100,
		},
		{
			name:  "both hit",
			p1Atk: duel.ZoneBody, p1Def: duel.ZoneBody,
			p2Atk: duel.ZoneHead, p2Def: duel.ZoneHead,
			wantP1HP: 75, wantP2HP: 75,
		},
		{
			name:  "attack into matching defense misses",
			p1Atk: duel.ZoneLegs, p1Def: duel.ZoneHead,
			p2Atk: duel.ZoneBody, p2Def: duel.ZoneLegs,
			wantP1HP: 75, wantP2HP: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := e.NewDuel(1, 2, 0)
			state = e.ResolveRound(state, tt.p1Atk, tt.p1Def, tt.p2Atk, tt.p2Def)

			if state.Player1HP != tt.wantP1HP {
				t.Errorf("p1 hp: got %d, want %d", state.Player1HP, tt.wantP1HP)
			}
			if state.Player2HP != tt.wantP2HP {
				t.Errorf("p2 hp: got %d, want %d", state.Player2HP, tt.wantP2HP)
			}
		})
	}
}

func TestResolveRound_SimultaneousAgainstPreRoundState(t *testing.T) {
	e := duel.NewEngine(nil)
	state := e.NewDuel(1, 2, 0)
	state.Player1HP = 25
	state.Player2HP = 25

	// Both hit: damage applies to both against pre-round HP, not sequentially.
	state = e.ResolveRound(state, duel.ZoneHead, duel.ZoneHead, duel.ZoneBody, duel.ZoneLegs)

	if state.Player1HP != 0 || state.Player2HP != 0 {
		t.Errorf("both should drop to 0, got %d/%d", state.Player1HP, state.Player2HP)
	}
	if state.Status != duel.StatusPlayer1Win {
		t.Errorf("challenger wins a double KO: got %q", state.Status)
	}
}

func TestResolveRound_Player2Wins(t *testing.T) {
	e := duel.NewEngine(nil)
	state := e.NewDuel(1, 2, 0)
	state.Player1HP = 25

	// Opponent attack lands, p1 attack is blocked.
	state = e.ResolveRound(state, duel.ZoneHead, duel.ZoneHead, duel.ZoneBody, duel.ZoneHead)

	if state.Player1HP != 0 {
		t.Errorf("p1 hp: got %d, want 0", state.Player1HP)
	}
	if state.Status != duel.StatusPlayer2Win {
		t.Errorf("status: got %q, want player2_win", state.Status)
	}
	winnerID, ok := state.WinnerID()
	if !ok || winnerID != 2 {
		t.Errorf("winner: got %d, want 2", winnerID)
	}
}

func TestResolveRound_TerminalIsIdempotent(t *testing.T) {
	e := duel.NewEngine(nil)
	state := e.NewDuel(1, 2, 0)
	state.Player2HP = 25
	state = e.ResolveRound(state, duel.ZoneHead, duel.ZoneHead, duel.ZoneHead, duel.ZoneBody)

	if !state.IsFinished() {
		t.Fatal("duel should be finished")
	}

	after := e.ResolveRound(state, duel.ZoneLegs, duel.ZoneLegs, duel.ZoneLegs, duel.ZoneLegs)
	if after != state {
		t.Errorf("resolve on terminal state must be a no-op:\n got %+v\nwant %+v", after, state)
	}
}

func TestResolveRound_HPFlooredAtZero(t *testing.T) {
	e := duel.NewEngine(nil)
	state := e.NewDuel(1, 2, 0)
	state.Player2HP = 10

	state = e.ResolveRound(state, duel.ZoneHead, duel.ZoneHead, duel.ZoneHead, duel.ZoneBody)
	if state.Player2HP != 0 {
		t.Errorf("hp floors at 0, got %d", state.Player2HP)
	}
}

func TestCheckTermination(t *testing.T) {
	e := duel.NewEngine(nil)

	tests := []struct {
		name       string
		p1HP, p2HP int
		want       duel.Status
	}{
		{"both alive", 50, 50, duel.StatusPlaying},
		{"p1 down", 0, 50, duel.StatusPlayer2Win},
		{"p2 down", 50, 0, duel.StatusPlayer1Win},
		{"both down favors challenger", 0, 0, duel.StatusPlayer1Win},
		{"negative hp counts as down", -5, 10, duel.StatusPlayer2Win},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := e.NewDuel(1, 2, 0)
			state.Player1HP = tt.p1HP
			state.Player2HP = tt.p2HP

			state = e.CheckTermination(state)
			if state.Status != tt.want {
				t.Errorf("status: got %q, want %q", state.Status, tt.want)
			}
		})
	}
}

func TestOpponentMove_FloorMapping(t *testing.T) {
	// Draws map to zones via floor(r*3): [0,1/3) head, [1/3,2/3) body,
	// [2/3,1) legs.
	e := duel.NewEngine(rng.Sequence(0.0, 0.999, 0.34, 0.66, 0.67, 0.33))

	attack, defend := e.OpponentMove()
	if attack != duel.ZoneHead || defend != duel.ZoneLegs {
		t.Errorf("first move: got %s/%s, want head/legs", attack, defend)
	}

	attack, defend = e.OpponentMove()
	if attack != duel.ZoneBody || defend != duel.ZoneBody {
		t.Errorf("second move: got %s/%s, want body/body", attack, defend)
	}

	attack, defend = e.OpponentMove()
	if attack != duel.ZoneLegs || defend != duel.ZoneHead {
		t.Errorf("third move: got %s/%s, want legs/head", attack, defend)
	}
}

func TestHPBar(t *testing.T) {
	tests := []struct {
		hp, maxHP int
		want      string
	}{
		{100, 100, "[███████] 100%"},
		{75, 100, "[█████░░] 75%"},
		{50, 100, "[███░░░░] 50%"},
		{25, 100, "[█░░░░░░] 25%"},
		{0, 100, "[░░░░░░░] 0%"},
		{-10, 100, "[░░░░░░░] 0%"},
		{150, 100, "[███████] 100%"},
		{1, 100, "[░░░░░░░] 1%"},
	}

	for _, tt := range tests {
		if got := duel.HPBar(tt.hp, tt.maxHP); got != tt.want {
			t.Errorf("HPBar(%d, %d): got %q, want %q", tt.hp, tt.maxHP, got, tt.want)
		}
	}
}
