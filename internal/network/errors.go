package network

import "fmt"

// NetworkError wraps a socket failure (bind, send or receive). It is fatal to
// the round it occurred in, but a capacity search can record the iteration as
// failed and keep probing.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
