package bench

import (
	"github.com/NodePath81/udpbench/internal/network"
	"github.com/NodePath81/udpbench/internal/protocol"
)

// NetworkError wraps a socket failure. A round that hits one is aborted, but
// FindMax records the iteration as failed and keeps searching.
type NetworkError = network.NetworkError

var (
	// ErrTruncated and ErrMalformed classify payload decode failures. They
	// are counted per round, never fatal.
	ErrTruncated = protocol.ErrTruncated
	ErrMalformed = protocol.ErrMalformed
	// ErrTableFull indicates the send-record capacity was exceeded; this is
	// a configuration error, surfaced before tracking would be truncated.
	ErrTableFull = network.ErrTableFull
)
