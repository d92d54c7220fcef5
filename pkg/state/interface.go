package state

import (
	"github.com/google/uuid"
)

type Manager interface {
	// --- Connection Lifecycle ---
	RegisterConnection(t Transport, ipAddr string) (*Connection, error)
	// DeregisterConnection is idempotent; deregistering an unknown id is a no-op.
	DeregisterConnection(connID uuid.UUID) error
	GetConnection(connID uuid.UUID) (*Connection, bool)
	FindOldestUserConnection(userID string) (*Connection, bool)

	// --- User Management ---
	// links a connection to a user, creating the user if they don't exist.
	AssociateUser(connID uuid.UUID, profile Profile) (*User, error)
	FindUser(userID string) (*User, bool)
	GetUserConnectionCount(userID string) (int, error)
	GetAllUsers() []*User

	// --- Room & Membership Management ---
	// adds a user to a room, creating the room if it doesn't exist.
	Join(userID, roomID string) error
	Leave(userID, roomID string) error
	FindRoom(roomID string) (*Room, bool)
	// RoomConnections flattens a room's membership into its live connections.
	// An unknown or empty room yields an empty slice, not an error.
	RoomConnections(roomID string) []*Connection
	AllConnections() []*Connection
}
