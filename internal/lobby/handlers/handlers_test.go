package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamehub/internal/lobby/gameproc"
	"gamehub/internal/lobby/protocol"
	"gamehub/internal/lobby/store"
)

// wireMsg decodes any server line; ReqID == nil marks an event.
type wireMsg struct {
	OK      bool   `json:"ok"`
	Cmd     string `json:"cmd"`
	ReqID   *int64 `json:"req_id"`
	Message string `json:"message"`
	Error   string `json:"error"`

	RoomID      *int64                 `json:"room_id"`
	GameID      *int64                 `json:"game_id"`
	MaxPlayers  *int                   `json:"max_players"`
	Players     []string               `json:"players"`
	Rooms       []protocol.RoomSummary `json:"rooms"`
	Games       []protocol.GameSummary `json:"games"`
	Game        *protocol.GameDetail   `json:"game"`
	Ratings     []protocol.Rating      `json:"ratings"`
	GameVersion string                 `json:"game_version"`
	VersionID   *int64                 `json:"version_id"`
	UploadPath  string                 `json:"upload_path"`
	GameHost    string                 `json:"game_host"`
	GamePort    *int                   `json:"game_port"`
	GameName    string                 `json:"game_name"`
	HostName    string                 `json:"host_name"`
}

func newTestServer(t *testing.T, st store.Store, gameStoreDir string) *Server {
	t.Helper()
	s := NewServer("127.0.0.1:0", gameStoreDir, st, gameproc.NewSupervisor("127.0.0.1"))
	require.NoError(t, s.Listen())
	go s.Serve()
	t.Cleanup(s.Shutdown)
	return s
}

type testClient struct {
	t       *testing.T
	conn    net.Conn
	reader  *bufio.Reader
	nextID  int64
	pending []wireMsg
}

func dial(t *testing.T, s *Server) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *testClient) readLine() (wireMsg, error) {
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	raw, err := protocol.ReadMessage(c.reader)
	if err != nil {
		return wireMsg{}, err
	}
	var msg wireMsg
	require.NoError(c.t, json.Unmarshal(raw, &msg))
	return msg, nil
}

// do sends a request and reads until its response arrives, stashing any
// events that come in between.
func (c *testClient) do(fields map[string]any) wireMsg {
	c.t.Helper()
	c.nextID++
	reqID := c.nextID
	fields["req_id"] = reqID
	require.NoError(c.t, protocol.WriteMessage(c.conn, fields))

	for {
		msg, err := c.readLine()
		require.NoError(c.t, err, "waiting for response to %v", fields["cmd"])
		if msg.ReqID == nil {
			c.pending = append(c.pending, msg)
			continue
		}
		require.Equal(c.t, reqID, *msg.ReqID)
		return msg
	}
}

// event returns the next event with the given cmd, consuming stashed ones
// first.
func (c *testClient) event(cmd string) wireMsg {
	c.t.Helper()
	for i, msg := range c.pending {
		if msg.Cmd == cmd {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return msg
		}
	}
	for {
		msg, err := c.readLine()
		require.NoError(c.t, err, "waiting for event %s", cmd)
		if msg.ReqID == nil && msg.Cmd == cmd {
			return msg
		}
		if msg.ReqID == nil {
			c.pending = append(c.pending, msg)
		}
	}
}

func (c *testClient) registerPlayer(name string) {
	c.t.Helper()
	resp := c.do(map[string]any{"cmd": "player_register", "username": name, "password": "pw"})
	require.True(c.t, resp.OK)
}

func (c *testClient) loginPlayer(name string) {
	c.t.Helper()
	resp := c.do(map[string]any{"cmd": "player_login", "username": name, "password": "pw"})
	require.True(c.t, resp.OK)
}

// seedGame registers a developer and one active game with an uploaded
// version directly in the store.
func seedGame(t *testing.T, st *fakeStore, version string, maxPlayers int) int64 {
	t.Helper()
	require.NoError(t, st.CreateDeveloper("studio", "pw", "Studio"))
	dev, err := st.DeveloperByUsername("studio")
	require.NoError(t, err)
	gameID, err := st.CreateGame(dev.ID, "rps", "rock paper scissors", maxPlayers)
	require.NoError(t, err)
	if version != "" {
		path := fmt.Sprintf("game_store/studio/%d_rps/v%s.zip", gameID, version)
		_, err = st.CreateVersion(gameID, version, "", path)
		require.NoError(t, err)
	}
	return gameID
}

func TestRegisterAndLogin(t *testing.T) {
	st := newFakeStore()
	s := newTestServer(t, st, t.TempDir())
	c := dial(t, s)

	c.registerPlayer("alice")

	resp := c.do(map[string]any{"cmd": "player_register", "username": "alice", "password": "pw"})
	assert.False(t, resp.OK)
	assert.Equal(t, protocol.ErrUsernameTaken, resp.Error)

	resp = c.do(map[string]any{"cmd": "player_login", "username": "alice", "password": "wrong"})
	assert.False(t, resp.OK)
	assert.Equal(t, protocol.ErrInvalidCreds, resp.Error)

	c.loginPlayer("alice")
}

func TestRegisterRejectsEmptyInput(t *testing.T) {
	s := newTestServer(t, newFakeStore(), t.TempDir())
	c := dial(t, s)

	resp := c.do(map[string]any{"cmd": "player_register", "username": "  ", "password": "pw"})
	assert.Equal(t, protocol.ErrBadInput, resp.Error)
}

func TestUnknownCommand(t *testing.T) {
	s := newTestServer(t, newFakeStore(), t.TempDir())
	c := dial(t, s)

	resp := c.do(map[string]any{"cmd": "fly_to_moon"})
	assert.False(t, resp.OK)
	assert.Equal(t, protocol.ErrUnknownCmd, resp.Error)
}

func TestMalformedLineIsSkipped(t *testing.T) {
	s := newTestServer(t, newFakeStore(), t.TempDir())
	c := dial(t, s)

	_, err := c.conn.Write([]byte("{broken\n"))
	require.NoError(t, err)

	// the connection survives and keeps answering
	resp := c.do(map[string]any{"cmd": "list_rooms"})
	assert.Equal(t, protocol.ErrNotLoggedIn, resp.Error)
}

func TestCommandsRequireLogin(t *testing.T) {
	s := newTestServer(t, newFakeStore(), t.TempDir())
	c := dial(t, s)

	for _, cmd := range []string{"create_room", "join_room", "leave_room", "list_rooms",
		"room_info", "list_games", "add_rating", "start_game", "finish_game"} {
		resp := c.do(map[string]any{"cmd": cmd})
		assert.Equal(t, protocol.ErrNotLoggedIn, resp.Error, cmd)
	}
}

func TestSecondLoginEvictsFirst(t *testing.T) {
	st := newFakeStore()
	s := newTestServer(t, st, t.TempDir())

	first := dial(t, s)
	first.registerPlayer("alice")
	first.loginPlayer("alice")

	second := dial(t, s)
	second.loginPlayer("alice")

	evt := first.event(protocol.EvtForceLogout)
	assert.Contains(t, evt.Message, "another location")

	// the first connection is closed after the event
	_, err := first.readLine()
	assert.Error(t, err)
}

func TestCreateAndJoinRoom(t *testing.T) {
	st := newFakeStore()
	gameID := seedGame(t, st, "1.0.0", 2)
	s := newTestServer(t, st, t.TempDir())

	alice := dial(t, s)
	alice.registerPlayer("alice")
	alice.loginPlayer("alice")

	created := alice.do(map[string]any{"cmd": "create_room", "game_id": gameID})
	require.True(t, created.OK)
	require.NotNil(t, created.RoomID)
	roomID := *created.RoomID

	info := alice.do(map[string]any{"cmd": "room_info", "room_id": roomID})
	assert.Equal(t, []string{"alice"}, info.Players)

	bob := dial(t, s)
	bob.registerPlayer("bob")
	bob.loginPlayer("bob")
	joined := bob.do(map[string]any{"cmd": "join_room", "room_id": roomID})
	require.True(t, joined.OK)
	assert.Equal(t, []string{"alice", "bob"}, joined.Players)

	evt := alice.event(protocol.EvtRoomUpdate)
	require.NotNil(t, evt.RoomID)
	assert.Equal(t, roomID, *evt.RoomID)
	assert.Equal(t, []string{"alice", "bob"}, evt.Players)

	listed := alice.do(map[string]any{"cmd": "list_rooms"})
	require.Len(t, listed.Rooms, 1)
	assert.Equal(t, roomID, listed.Rooms[0].RoomID)
	assert.Equal(t, 2, listed.Rooms[0].CurrentPlayers)
}

func TestJoinFullRoomLeavesNoResidue(t *testing.T) {
	st := newFakeStore()
	gameID := seedGame(t, st, "1.0.0", 2)
	s := newTestServer(t, st, t.TempDir())

	alice := dial(t, s)
	alice.registerPlayer("alice")
	alice.loginPlayer("alice")
	created := alice.do(map[string]any{"cmd": "create_room", "game_id": gameID})
	roomID := *created.RoomID

	bob := dial(t, s)
	bob.registerPlayer("bob")
	bob.loginPlayer("bob")
	require.True(t, bob.do(map[string]any{"cmd": "join_room", "room_id": roomID}).OK)

	carol := dial(t, s)
	carol.registerPlayer("carol")
	carol.loginPlayer("carol")
	rejected := carol.do(map[string]any{"cmd": "join_room", "room_id": roomID})
	assert.Equal(t, protocol.ErrRoomFull, rejected.Error)

	info := alice.do(map[string]any{"cmd": "room_info", "room_id": roomID})
	assert.Equal(t, []string{"alice", "bob"}, info.Players)
}

func TestCreateRoomFailures(t *testing.T) {
	st := newFakeStore()
	gameID := seedGame(t, st, "1.0.0", 2)
	require.NoError(t, st.MarkGameDeleted(gameID))
	s := newTestServer(t, st, t.TempDir())

	alice := dial(t, s)
	alice.registerPlayer("alice")
	alice.loginPlayer("alice")

	resp := alice.do(map[string]any{"cmd": "create_room", "game_id": gameID})
	assert.Equal(t, protocol.ErrGameNotActive, resp.Error)

	resp = alice.do(map[string]any{"cmd": "create_room", "game_id": 999})
	assert.Equal(t, protocol.ErrNoSuchGame, resp.Error)

	resp = alice.do(map[string]any{"cmd": "create_room", "game_id": "seven"})
	assert.Equal(t, protocol.ErrBadInput, resp.Error)
}

func TestHostLeaveClosesRoom(t *testing.T) {
	st := newFakeStore()
	gameID := seedGame(t, st, "1.0.0", 3)
	s := newTestServer(t, st, t.TempDir())

	host := dial(t, s)
	host.registerPlayer("bob")
	host.loginPlayer("bob")
	created := host.do(map[string]any{"cmd": "create_room", "game_id": gameID})
	roomID := *created.RoomID

	member := dial(t, s)
	member.registerPlayer("carol")
	member.loginPlayer("carol")
	require.True(t, member.do(map[string]any{"cmd": "join_room", "room_id": roomID}).OK)

	left := host.do(map[string]any{"cmd": "leave_room"})
	require.True(t, left.OK)
	assert.Contains(t, left.Message, "room closed")

	evt := member.event(protocol.EvtRoomClosed)
	require.NotNil(t, evt.RoomID)
	assert.Equal(t, roomID, *evt.RoomID)

	listed := member.do(map[string]any{"cmd": "list_rooms"})
	assert.Empty(t, listed.Rooms)

	rejoin := member.do(map[string]any{"cmd": "join_room", "room_id": roomID})
	assert.Equal(t, protocol.ErrNoSuchRoom, rejoin.Error)

	// the persisted row went with it
	_, err := st.RoomByID(roomID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemberLeaveBroadcastsRoster(t *testing.T) {
	st := newFakeStore()
	gameID := seedGame(t, st, "1.0.0", 3)
	s := newTestServer(t, st, t.TempDir())

	host := dial(t, s)
	host.registerPlayer("alice")
	host.loginPlayer("alice")
	roomID := *host.do(map[string]any{"cmd": "create_room", "game_id": gameID}).RoomID

	member := dial(t, s)
	member.registerPlayer("bob")
	member.loginPlayer("bob")
	require.True(t, member.do(map[string]any{"cmd": "join_room", "room_id": roomID}).OK)

	left := member.do(map[string]any{"cmd": "leave_room"})
	require.True(t, left.OK)

	evt := host.event(protocol.EvtRoomUpdate)
	assert.Equal(t, []string{"alice", "bob"}, evt.Players) // join broadcast
	evt = host.event(protocol.EvtRoomUpdate)
	assert.Equal(t, []string{"alice"}, evt.Players) // leave broadcast

	noRoom := member.do(map[string]any{"cmd": "leave_room"})
	assert.Equal(t, protocol.ErrNotInRoom, noRoom.Error)
}

func TestDisconnectRunsLeaveCleanup(t *testing.T) {
	st := newFakeStore()
	gameID := seedGame(t, st, "1.0.0", 3)
	s := newTestServer(t, st, t.TempDir())

	host := dial(t, s)
	host.registerPlayer("alice")
	host.loginPlayer("alice")
	roomID := *host.do(map[string]any{"cmd": "create_room", "game_id": gameID}).RoomID

	member := dial(t, s)
	member.registerPlayer("bob")
	member.loginPlayer("bob")
	require.True(t, member.do(map[string]any{"cmd": "join_room", "room_id": roomID}).OK)

	host.conn.Close()

	evt := member.event(protocol.EvtRoomClosed)
	require.NotNil(t, evt.RoomID)
	assert.Equal(t, roomID, *evt.RoomID)
}

func TestListGamesReportsSemanticLatest(t *testing.T) {
	st := newFakeStore()
	gameID := seedGame(t, st, "1.2.0", 2)
	_, err := st.CreateVersion(gameID, "1.1.0", "", "game_store/studio/rps/v1.1.0.zip")
	require.NoError(t, err)
	s := newTestServer(t, st, t.TempDir())

	c := dial(t, s)
	c.registerPlayer("alice")
	c.loginPlayer("alice")

	listed := c.do(map[string]any{"cmd": "list_games"})
	require.True(t, listed.OK)
	require.Len(t, listed.Games, 1)
	assert.Equal(t, "1.2.0", listed.Games[0].LatestVersion)
}
