package coinflip_test

import (
	"testing"

	"chat-arcade/internal/coinflip"
	"chat-arcade/internal/domain"
	"chat-arcade/internal/ledger"
	"chat-arcade/internal/rng"

	"github.com/rs/zerolog"
)

func newEngine(starting int, src rng.Source) (*coinflip.Engine, *ledger.Ledger) {
	l := ledger.New(starting, zerolog.Nop())
	return coinflip.NewEngine(l, src, zerolog.Nop()), l
}

var key = domain.Key{UserID: 1, ChatID: 1}

func TestFlip_Win(t *testing.T) {
	// Draws below 0.5 land on heads.
	e, _ := newEngine(100, rng.Sequence(0.1))

	result := e.Flip(key, 40, coinflip.Heads)
	if !result.Success {
		t.Fatalf("flip failed: %s", result.ErrorCode)
	}
	if !result.Won || result.Outcome != coinflip.Heads {
		t.Errorf("outcome: got %s won=%v, want heads won", result.Outcome, result.Won)
	}
	if result.BalanceChange != 40 {
		t.Errorf("balance_change: got %d, want +40", result.BalanceChange)
	}
	if result.NewBalance != 140 {
		t.Errorf("new_balance: got %d, want 140", result.NewBalance)
	}
}

func TestFlip_Lose(t *testing.T) {
	// Draws at or above 0.5 land on tails.
	e, l := newEngine(100, rng.Sequence(0.9))

	result := e.Flip(key, 40, coinflip.Heads)
	if !result.Success {
		t.Fatalf("flip failed: %s", result.ErrorCode)
	}
	if result.Won || result.Outcome != coinflip.Tails {
		t.Errorf("outcome: got %s won=%v, want tails lost", result.Outcome, result.Won)
	}
	if result.NewBalance != 60 {
		t.Errorf("new_balance: got %d, want 60", result.NewBalance)
	}
	if got := l.GetBalance(key).TotalLost; got != 40 {
		t.Errorf("total_lost: got %d, want 40", got)
	}
}

func TestFlip_RejectsBadBets(t *testing.T) {
	e, l := newEngine(100, rng.Sequence(0.1))

	if result := e.Flip(key, 0, coinflip.Heads); result.ErrorCode != domain.ErrCodeInvalidBet {
		t.Errorf("zero bet: got %s, want INVALID_BET", result.ErrorCode)
	}
	if result := e.Flip(key, -10, coinflip.Heads); result.ErrorCode != domain.ErrCodeInvalidBet {
		t.Errorf("negative bet: got %s, want INVALID_BET", result.ErrorCode)
	}
	if result := e.Flip(key, 500, coinflip.Heads); result.ErrorCode != domain.ErrCodeInsufficientBalance {
		t.Errorf("oversized bet: got %s, want INSUFFICIENT_BALANCE", result.ErrorCode)
	}
	if got := l.GetBalance(key).Balance; got != 100 {
		t.Errorf("rejections must leave balance untouched: got %d, want 100", got)
	}
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		in     string
		want   coinflip.Side
		wantOK bool
	}{
		{"heads", coinflip.Heads, true},
		{" TAILS ", coinflip.Tails, true},
		{"edge", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := coinflip.ParseSide(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseSide(%q): got %q/%v, want %q/%v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
