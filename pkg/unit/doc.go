// Package unit models the state of every player-controlled entity in a match:
// the five robot kinds and the two structures (factories and rockets).
//
// A Unit carries its identity (id, team, type), its physical state (location,
// health, movement and attack heat) and exactly one kind record holding the
// type-specific stats for its current research level. The package never decides
// when a unit acts; it only applies what the match orchestrator tells it to.
//
// Units are not safe for concurrent use. Each one is owned by a single caller
// for its whole lifetime.
package unit
