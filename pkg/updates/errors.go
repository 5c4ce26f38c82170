package updates

import "errors"

var (
	ErrMalformedUpdate = errors.New("updates: malformed update")
	ErrInvalidAdminIDs = errors.New("updates: invalid admin ids")
	ErrNoChat          = errors.New("updates: update has no chat to reply to")
)
