package core

import (
	"errors"
)

var (
	ErrNotReady       = errors.New("instance content is not ready")
	ErrUnknownAsset   = errors.New("unknown asset")
	ErrWatcherClosed  = errors.New("asset watcher already closed")
	ErrMalformedAsset = errors.New("malformed asset data")
)
