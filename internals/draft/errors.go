package draft

import (
	"errors"

	"github.com/portfoligo/api-server/internals/roster"
)

var (
	ErrInvalidConfiguration = errors.New("invalid draft configuration")
	ErrSessionNotActive     = errors.New("draft session is not active")
	ErrNotYourTurn          = errors.New("it is not this team's turn to pick")
	ErrStockUnavailable     = errors.New("stock is not available in the pool")
	ErrTeamNotFound         = errors.New("team is not part of this draft")
	ErrInvalidTransition    = errors.New("draft cannot make that transition from its current status")
	ErrDraftNotFound        = errors.New("no draft has been started for this league")

	ErrRosterFull        = roster.ErrRosterFull
	ErrStockAlreadyOwned = roster.ErrStockAlreadyOwned
	ErrStockNotFound     = roster.ErrStockNotFound
)
