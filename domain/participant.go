// Package domain contains core concepts of the chat system.
// This file defines Session entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

// ConnectionID identifies a live connection. It is assigned by the transport
// and only ever compared for equality.
type ConnectionID string

// Session binds a connection to the room it currently occupies.
// A session exists if and only if the connection sits in a room.
type Session struct {
	Connection  ConnectionID
	DisplayName string
	Room        RoomID
}
