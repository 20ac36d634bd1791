// Package rooms holds the authoritative in-memory room state: membership,
// host, capacity and open/closed status. Every read-modify-write runs under
// one mutex, so capacity checks and roster mutations are atomic with respect
// to concurrent joins and leaves.
package rooms

import (
	"errors"
	"sync"
)

var (
	ErrNoSuchRoom = errors.New("no such room")
	ErrRoomFull   = errors.New("room full")
	ErrNotInRoom  = errors.New("not in any room")
)

// Room statuses. A room opens once and closes once; closed is terminal.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

type Room struct {
	ID         int64
	Host       string
	GameID     int64
	GameName   string
	MaxPlayers int
	Status     string
}

// OpenRoom is a consistent snapshot of a room and its roster.
type OpenRoom struct {
	Room
	Players []string
}

// LeaveResult describes what a departure did and who must be notified.
type LeaveResult struct {
	RoomID    int64
	Closed    bool
	Host      string
	Remaining []string
}

type Manager struct {
	mu       sync.Mutex
	rooms    map[int64]*Room
	members  map[int64][]string
	userRoom map[string]int64
}

func NewManager() *Manager {
	return &Manager{
		rooms:    make(map[int64]*Room),
		members:  make(map[int64][]string),
		userRoom: make(map[string]int64),
	}
}

// Create registers a freshly persisted room with its host as sole member.
func (m *Manager) Create(r Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.Status = StatusOpen
	m.rooms[r.ID] = &r
	m.members[r.ID] = []string{r.Host}
	m.userRoom[r.Host] = r.ID
}

// Join admits username into the room and returns the updated roster.
// Capacity is checked before admission, so a rejected join leaves no trace.
// Joining a room one is already in returns the current roster unchanged.
func (m *Manager) Join(roomID int64, username string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok || r.Status != StatusOpen {
		return nil, ErrNoSuchRoom
	}
	roster := m.members[roomID]
	for _, name := range roster {
		if name == username {
			return copyRoster(roster), nil
		}
	}
	if len(roster) >= r.MaxPlayers {
		return nil, ErrRoomFull
	}
	roster = append(roster, username)
	m.members[roomID] = roster
	m.userRoom[username] = roomID
	return copyRoster(roster), nil
}

// Leave removes username from its current room. A departing host closes the
// room and evicts everyone; any other member just shrinks the roster. The
// result lists who is left to notify either way.
func (m *Manager) Leave(username string) (LeaveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	roomID, ok := m.userRoom[username]
	if !ok {
		return LeaveResult{}, ErrNotInRoom
	}
	delete(m.userRoom, username)
	r, ok := m.rooms[roomID]
	if !ok {
		return LeaveResult{RoomID: roomID}, nil
	}
	roster := removeName(m.members[roomID], username)

	if username == r.Host {
		r.Status = StatusClosed
		for _, name := range roster {
			delete(m.userRoom, name)
		}
		delete(m.rooms, roomID)
		delete(m.members, roomID)
		return LeaveResult{RoomID: roomID, Closed: true, Host: r.Host, Remaining: roster}, nil
	}

	m.members[roomID] = roster
	return LeaveResult{RoomID: roomID, Host: r.Host, Remaining: copyRoster(roster)}, nil
}

// Remove tears a room down (game finished) and returns its final roster.
func (m *Manager) Remove(roomID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	roster := m.members[roomID]
	for _, name := range roster {
		delete(m.userRoom, name)
	}
	delete(m.rooms, roomID)
	delete(m.members, roomID)
	return roster
}

// Get returns a snapshot of the room, if it exists.
func (m *Manager) Get(roomID int64) (Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return Room{}, false
	}
	return *r, true
}

// Members returns the room's roster in join order.
func (m *Manager) Members(roomID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	roster, ok := m.members[roomID]
	if !ok {
		return nil, ErrNoSuchRoom
	}
	return copyRoster(roster), nil
}

// RoomOf returns the id of the room username currently occupies.
func (m *Manager) RoomOf(username string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.userRoom[username]
	return id, ok
}

// ListOpen snapshots every open room with its roster.
func (m *Manager) ListOpen() []OpenRoom {
	m.mu.Lock()
	defer m.mu.Unlock()
	var open []OpenRoom
	for id, r := range m.rooms {
		if r.Status != StatusOpen {
			continue
		}
		open = append(open, OpenRoom{Room: *r, Players: copyRoster(m.members[id])})
	}
	return open
}

func copyRoster(roster []string) []string {
	out := make([]string, len(roster))
	copy(out, roster)
	return out
}

func removeName(roster []string, username string) []string {
	out := roster[:0]
	for _, name := range roster {
		if name != username {
			out = append(out, name)
		}
	}
	return out
}
