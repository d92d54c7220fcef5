package state

import (
	"time"

	"github.com/google/uuid"
)

// AdminRoom is the shared room every admin connection joins.
const AdminRoom = "admin"

// UserRoom returns the personal room name for a user id.
func UserRoom(userID string) string {
	return "user:" + userID
}

// Transport is the send side of a live connection. The concrete
// implementation lives in pkg/transport; tests substitute fakes.
type Transport interface {
	ID() uuid.UUID
	Send(message []byte)
	Close(err error)
}

// Profile carries the identity resolved for a connection by the backend.
type Profile struct {
	ID    string
	Name  string
	Email string
	Roles RoleSet
}

// representation of a single transport-layer connection.
type Connection struct {
	ID        uuid.UUID
	IPAddress string
	Transport Transport
	// Profile is the identity snapshot fixed at association, before the
	// connection's pumps start. Handlers read it without locking; it is
	// never mutated afterwards, a reconnect only affects the new connection.
	Profile   Profile
	User      *User // registry linkage, nil until associated
	CreatedAt time.Time
}

// canonical representation of a user, aggregating all their connections.
type User struct {
	ID          string
	Name        string
	Email       string
	Roles       RoleSet
	Connections map[uuid.UUID]*Connection
	Rooms       map[string]*Room // memberships keyed by room id
}

// canonical representation of a broadcast group.
type Room struct {
	ID      string
	Members map[string]*User // keyed by user id
}
