// Package domain defines core data structures shared by the auction watcher.
package domain

import "github.com/pkg/errors"

// Side market side of an order.
type Side string

const (
	// SideBid buy order.
	SideBid Side = "bid"
	// SideAsk sell order.
	SideAsk Side = "ask"
)

// ParseSide converts raw side text into a Side.
func ParseSide(raw string) (Side, error) {
	s := Side(raw)
	if !s.IsValid() {
		return "", errors.Errorf("unknown market side %q", raw)
	}
	return s, nil
}

// String returns the string representation.
func (s Side) String() string {
	return string(s)
}

// IsValid checks if the Side value is valid.
func (s Side) IsValid() bool {
	return s == SideBid || s == SideAsk
}
