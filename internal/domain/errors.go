package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrBidTooLow         = errors.New("bid below current amount plus minimum increment")
	ErrBidRejected       = errors.New("bid rejected by server")
	ErrAuctionNotStarted = errors.New("auction has not started yet")
	ErrAuctionOver       = errors.New("auction is already over")
	ErrStageRequired     = errors.New("action not available at current eligibility stage")
	ErrDepositPending    = errors.New("deposit not confirmed yet")
	ErrRateLimited       = errors.New("rate limited")
	ErrRoomClosed        = errors.New("auction room closed")
	ErrNotConnected      = errors.New("push channel not connected")
	ErrViewUnmounted     = errors.New("auction view unmounted")
)
