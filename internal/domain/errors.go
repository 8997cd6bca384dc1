package domain

// ErrorCode classifies the expected, recoverable game outcomes. Callers
// branch on these as ordinary control flow.
type ErrorCode string

const (
	ErrCodeNone ErrorCode = ""

	ErrCodeAlreadyPlaying      ErrorCode = "ALREADY_PLAYING"
	ErrCodeSessionNotFound     ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeInvalidBet          ErrorCode = "INVALID_BET"
	ErrCodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"

	ErrCodeSelfChallenge   ErrorCode = "SELF_CHALLENGE"
	ErrCodePendingExists   ErrorCode = "PENDING_EXISTS"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeNotPending      ErrorCode = "NOT_PENDING"
	ErrCodeWrongTarget     ErrorCode = "WRONG_TARGET"
	ErrCodeExpired         ErrorCode = "EXPIRED"
	ErrCodeNotChallenger   ErrorCode = "NOT_CHALLENGER"
	ErrCodeChallengerBroke ErrorCode = "CHALLENGER_BROKE"
)
