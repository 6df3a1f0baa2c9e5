package world

import "errors"

var (
	ErrVetoed        = errors.New("action vetoed")
	ErrDead          = errors.New("not alive")
	ErrDestroyed     = errors.New("entity no longer exists")
	ErrUntakeable    = errors.New("cannot be taken")
	ErrUndroppable   = errors.New("cannot be dropped")
	ErrTooHeavy      = errors.New("too heavy")
	ErrNotCarrying   = errors.New("not carrying that")
	ErrNowhere       = errors.New("has no location")
	ErrNotAttackable = errors.New("cannot be attacked")
	ErrNotWeapon     = errors.New("not a weapon")
	ErrNoLives       = errors.New("no lives left")
	ErrDuplicateName = errors.New("entity name already in use")
	ErrNoSuchEntity  = errors.New("no such entity")
)
