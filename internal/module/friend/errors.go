package friend

import "errors"

// Friend module errors.
var (
	ErrSelfFriend      = errors.New("cannot befriend yourself")
	ErrAlreadyFriends  = errors.New("already friends")
	ErrRequestExists   = errors.New("request already pending")
	ErrRequestNotFound = errors.New("friend request not found")
	ErrNotAddressee    = errors.New("not the request addressee")
	ErrNotFriends      = errors.New("not friends")
)
