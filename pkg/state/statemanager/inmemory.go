package statemanager

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hoanle0126/LuxeBeauty-sub003/pkg/state"
)

// InMemoryManager keeps all connection, user and room state in process
// memory. Room membership exists only as long as at least one of the user's
// connections is alive; nothing is persisted.
type InMemoryManager struct {
	conns map[uuid.UUID]*state.Connection
	users map[string]*state.User
	rooms map[string]*state.Room

	// Lock order: connMu -> userMu -> roomMu.
	connMu sync.RWMutex
	userMu sync.RWMutex
	roomMu sync.RWMutex

	logger *slog.Logger
}

func NewInMemoryManager(logger *slog.Logger) *InMemoryManager {
	return &InMemoryManager{
		conns:  make(map[uuid.UUID]*state.Connection),
		users:  make(map[string]*state.User),
		rooms:  make(map[string]*state.Room),
		logger: logger.With(slog.String("component", "state_manager_inmemory")),
	}
}

// compile-time check to ensure InMemoryManager implements Manager.
var _ state.Manager = (*InMemoryManager)(nil)

func (m *InMemoryManager) RegisterConnection(t state.Transport, ipAddr string) (*state.Connection, error) {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	connID := t.ID()
	if _, exists := m.conns[connID]; exists {
		return nil, errors.New("connection is already registered")
	}
	conn := &state.Connection{
		ID:        connID,
		IPAddress: ipAddr,
		Transport: t,
		CreatedAt: time.Now(),
	}
	m.conns[connID] = conn
	m.logger.Debug("Connection registered", slog.String("connID", connID.String()))
	return conn, nil
}

func (m *InMemoryManager) DeregisterConnection(connID uuid.UUID) error {
	m.connMu.Lock()
	conn, ok := m.conns[connID]
	if !ok {
		// already deregistered
		m.connMu.Unlock()
		return nil
	}
	delete(m.conns, connID)
	m.connMu.Unlock()

	if conn.User == nil {
		return nil
	}

	// detach conn from its user; the user entry and its room memberships
	// only survive while at least one connection is alive.
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user := conn.User
	delete(user.Connections, connID)
	if len(user.Connections) > 0 {
		m.logger.Debug("Detached connection from user", slog.String("connID", connID.String()), slog.String("userID", user.ID))
		return nil
	}

	m.roomMu.Lock()
	defer m.roomMu.Unlock()
	for roomID, room := range user.Rooms {
		delete(room.Members, user.ID)
		if len(room.Members) == 0 {
			delete(m.rooms, roomID)
		}
	}
	delete(m.users, user.ID)
	m.logger.Debug("User session ended", slog.String("userID", user.ID))
	return nil
}

func (m *InMemoryManager) GetConnection(connID uuid.UUID) (*state.Connection, bool) {
	m.connMu.RLock()
	defer m.connMu.RUnlock()
	conn, ok := m.conns[connID]
	return conn, ok
}

func (m *InMemoryManager) FindOldestUserConnection(userID string) (*state.Connection, bool) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, false
	}

	var oldest *state.Connection
	for _, conn := range user.Connections {
		if oldest == nil || conn.CreatedAt.Before(oldest.CreatedAt) {
			oldest = conn
		}
	}
	if oldest == nil {
		return nil, false
	}
	return oldest, true
}

// --- User Management ---

func (m *InMemoryManager) AssociateUser(connID uuid.UUID, profile state.Profile) (*state.User, error) {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	m.userMu.Lock()
	defer m.userMu.Unlock()

	conn, ok := m.conns[connID]
	if !ok {
		return nil, errors.New("cannot associate user with unknown connection")
	}

	user, exists := m.users[profile.ID]
	if !exists {
		user = &state.User{
			ID:          profile.ID,
			Name:        profile.Name,
			Email:       profile.Email,
			Roles:       profile.Roles,
			Connections: make(map[uuid.UUID]*state.Connection),
			Rooms:       make(map[string]*state.Room),
		}
		m.users[profile.ID] = user
		m.logger.Debug("Created new user session", slog.String("userID", profile.ID))
	}

	// the snapshot on the connection is what event handlers read; the
	// aggregate user entry keeps its attributes from the first association
	// so that live connections never observe a concurrent rewrite.
	conn.Profile = profile
	conn.User = user
	user.Connections[connID] = conn

	m.logger.Debug("Associated connection with user", slog.String("connID", connID.String()), slog.String("userID", profile.ID))
	return user, nil
}

func (m *InMemoryManager) FindUser(userID string) (*state.User, bool) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()
	user, ok := m.users[userID]
	return user, ok
}

func (m *InMemoryManager) GetUserConnectionCount(userID string) (int, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return 0, nil // user doesn't exist yet, so they have 0 connections.
	}
	return len(user.Connections), nil
}

func (m *InMemoryManager) GetAllUsers() []*state.User {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	users := make([]*state.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users
}

// --- Room & Membership Management ---

func (m *InMemoryManager) Join(userID, roomID string) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()
	m.roomMu.Lock()
	defer m.roomMu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return errors.New("cannot join room: user not found")
	}

	// joining twice is a no-op.
	if _, exists := user.Rooms[roomID]; exists {
		return nil
	}

	room, exists := m.rooms[roomID]
	if !exists {
		room = &state.Room{
			ID:      roomID,
			Members: make(map[string]*state.User),
		}
		m.rooms[roomID] = room
	}

	user.Rooms[roomID] = room
	room.Members[userID] = user

	m.logger.Debug("User joined room", slog.String("userID", userID), slog.String("roomID", roomID))
	return nil
}

func (m *InMemoryManager) Leave(userID, roomID string) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()
	m.roomMu.Lock()
	defer m.roomMu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return nil // user doesn't exist, so they can't be in the room.
	}
	room, ok := m.rooms[roomID]
	if !ok {
		return nil
	}

	delete(user.Rooms, roomID)
	delete(room.Members, userID)

	// for memory hygiene, remove the room if it's now empty.
	if len(room.Members) == 0 {
		delete(m.rooms, roomID)
		m.logger.Debug("Removed empty room", slog.String("roomID", roomID))
	}

	m.logger.Debug("User left room", slog.String("userID", userID), slog.String("roomID", roomID))
	return nil
}

func (m *InMemoryManager) FindRoom(roomID string) (*state.Room, bool) {
	m.roomMu.RLock()
	defer m.roomMu.RUnlock()
	room, ok := m.rooms[roomID]
	return room, ok
}

func (m *InMemoryManager) RoomConnections(roomID string) []*state.Connection {
	m.userMu.RLock()
	defer m.userMu.RUnlock()
	m.roomMu.RLock()
	defer m.roomMu.RUnlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil
	}

	var conns []*state.Connection
	for _, member := range room.Members {
		for _, conn := range member.Connections {
			conns = append(conns, conn)
		}
	}
	return conns
}

func (m *InMemoryManager) AllConnections() []*state.Connection {
	m.connMu.RLock()
	defer m.connMu.RUnlock()

	conns := make([]*state.Connection, 0, len(m.conns))
	for _, conn := range m.conns {
		conns = append(conns, conn)
	}
	return conns
}
