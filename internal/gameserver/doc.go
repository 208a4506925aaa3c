// Package gameserver runs a loaded world: it resets zones on schedule,
// writes snapshots and persists the world while the server is up.
package gameserver
