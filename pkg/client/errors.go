package client

import "errors"

var (
	ErrUnsupportedClient = errors.New("unsupported torrent client")
	ErrNotConnected      = errors.New("client not connected")
)
