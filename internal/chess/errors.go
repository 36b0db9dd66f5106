package chess

import (
	"errors"
	"fmt"
)

// Rule violations. A call that fails with one of these leaves the match untouched.
var (
	ErrNoPiece            = errors.New("no piece on source square")
	ErrNotYourPiece       = errors.New("piece belongs to the other player")
	ErrNoPossibleMoves    = errors.New("piece has no possible move")
	ErrIllegalTarget      = errors.New("piece cannot move to target square")
	ErrSelfCheck          = errors.New("move would leave own king in check")
	ErrCastleThroughCheck = errors.New("king cannot castle out of or through check")
	ErrGameOver           = errors.New("match already ended in checkmate")
	ErrNoPromotion        = errors.New("no piece awaiting promotion")
	ErrInvalidSquare      = errors.New("invalid square")
)

// ErrMissingKing marks a corrupted match. It is only ever raised through panic.
var ErrMissingKing = errors.New("no king on the board")

// MoveError describes a rejected request together with the squares involved.
type MoveError struct {
	Err  error
	From Square
	To   Square // zero when only the source was involved
}

func (e *MoveError) Error() string {
	if e.To == (Square{}) {
		return fmt.Sprintf("%s: %v", e.From, e.Err)
	}
	return fmt.Sprintf("%s-%s: %v", e.From, e.To, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// IsRuleViolation reports whether err rejects a request on chess grounds.
func IsRuleViolation(err error) bool {
	for _, target := range []error{
		ErrNoPiece, ErrNotYourPiece, ErrNoPossibleMoves, ErrIllegalTarget,
		ErrSelfCheck, ErrCastleThroughCheck, ErrGameOver, ErrNoPromotion,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
