// pkg/core/match.go
package core

import "time"

// Match describes a recorded game between two teams.
type Match struct {
	ID        uint
	Name      string
	StartTime time.Time
	MapWidth  uint32
	MapHeight uint32
	Seed      int64
}
