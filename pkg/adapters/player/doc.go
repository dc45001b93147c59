// Package player provides ports.SequencePlayer implementations: a wall-clock player that
// reports frame progress, and an instant player for tests and non-interactive surfaces.
package player
