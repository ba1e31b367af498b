// Package domain contains core concepts of the collaboration gateway.
// No runtime, network, or storage logic should be added here.
package domain

// User is the resolved identity bound to a connection after the
// authentication handshake. ID and Name are its public fields; they are
// the only ones ever sent over the wire.
type User struct {
	ID     string
	Name   string
	Role   string
	Active bool
}
