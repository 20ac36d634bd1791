package protocol

import "encoding/json"

// Command names. The set is closed: the dispatcher matches exhaustively and
// maps anything else to ErrUnknownCmd.
const (
	CmdPlayerRegister      = "player_register"
	CmdPlayerLogin         = "player_login"
	CmdDeveloperRegister   = "developer_register"
	CmdDeveloperLogin      = "developer_login"
	CmdCreateRoom          = "create_room"
	CmdJoinRoom            = "join_room"
	CmdLeaveRoom           = "leave_room"
	CmdListRooms           = "list_rooms"
	CmdRoomInfo            = "room_info"
	CmdListGames           = "list_games"
	CmdDeveloperCreateGame = "developer_create_game"
	CmdDeveloperListGames  = "developer_list_games"
	CmdDeveloperDeleteGame = "developer_delete_game"
	CmdDeveloperCreateVer  = "developer_create_version"
	CmdGetGameDetail       = "get_game_detail"
	CmdAddRating           = "add_rating"
	CmdStartGame           = "start_game"
	CmdFinishGame          = "finish_game"

	// Server-initiated events.
	EvtForceLogout    = "force_logout"
	EvtRoomUpdate     = "room_update"
	EvtRoomClosed     = "room_closed"
	EvtGameStart      = "game_start"
	EvtServerShutdown = "server_shutdown"
)

// Structured failure codes carried in the response "error" field.
const (
	ErrBadInput         = "BAD_INPUT"
	ErrNotLoggedIn      = "NOT_LOGGED_IN"
	ErrInvalidCreds     = "INVALID_CREDENTIALS"
	ErrUsernameTaken    = "USERNAME_TAKEN"
	ErrNoSuchRoom       = "NO_SUCH_ROOM"
	ErrNoSuchGame       = "NO_SUCH_GAME"
	ErrNoSuchDev        = "NO_SUCH_DEV"
	ErrNoSuchPlayer     = "NO_SUCH_PLAYER"
	ErrRoomFull         = "ROOM_FULL"
	ErrNotHost          = "NOT_HOST"
	ErrNotEnoughPlayers = "NOT_ENOUGH_PLAYERS"
	ErrNotOwner         = "NOT_OWNER"
	ErrGameNotActive    = "GAME_IS_NOT_ACTIVE"
	ErrNotInRoom        = "NOT_IN_ROOM"
	ErrNotPlayed        = "NOT_PLAYED"
	ErrDB               = "DB_ERROR"
	ErrInternal         = "INTERNAL"
	ErrUnknownCmd       = "UNKNOWN_CMD"
)

// Request is the envelope every client line decodes into. Command-specific
// fields are flattened alongside the envelope; only the fields a given
// handler needs are populated.
type Request struct {
	Cmd   string      `json:"cmd"`
	ReqID json.Number `json:"req_id,omitempty"`

	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	DisplayName string `json:"display_name,omitempty"`

	// numeric fields stay untyped here so a non-integer value earns a
	// BAD_INPUT response instead of killing the whole request
	GameID      any    `json:"game_id,omitempty"`
	RoomID      any    `json:"room_id,omitempty"`
	MaxPlayers  any    `json:"max_players,omitempty"`
	GameName    string `json:"game_name,omitempty"`
	GameDesc    string `json:"game_description,omitempty"`
	GameVersion string `json:"game_version,omitempty"`
	Changelog   string `json:"changelog,omitempty"`
	Score       any    `json:"score,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

// Response is the single reply shape for all commands. Optional fields are
// omitted when empty, so each command's reply carries only its own extras.
type Response struct {
	OK      bool        `json:"ok"`
	Cmd     string      `json:"cmd"`
	ReqID   json.Number `json:"req_id,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`

	RoomID      *int64        `json:"room_id,omitempty"`
	GameID      *int64        `json:"game_id,omitempty"`
	MaxPlayers  *int          `json:"max_players,omitempty"`
	Players     []string      `json:"players,omitempty"`
	Rooms       []RoomSummary `json:"rooms,omitempty"`
	Games       []GameSummary `json:"games,omitempty"`
	Game        *GameDetail   `json:"game,omitempty"`
	Ratings     []Rating      `json:"ratings,omitempty"`
	GameVersion string        `json:"game_version,omitempty"`
	VersionID   *int64        `json:"version_id,omitempty"`
	UploadPath  string        `json:"upload_path,omitempty"`
	GameHost    string        `json:"game_host,omitempty"`
	GamePort    *int          `json:"game_port,omitempty"`
	GameName    string        `json:"game_name,omitempty"`
}

// Event is a server-initiated push. It never carries a req_id.
type Event struct {
	Cmd     string   `json:"cmd"`
	Message string   `json:"message,omitempty"`
	RoomID  *int64   `json:"room_id,omitempty"`
	Players []string `json:"players,omitempty"`

	GameID      *int64 `json:"game_id,omitempty"`
	GameHost    string `json:"game_host,omitempty"`
	GamePort    *int   `json:"game_port,omitempty"`
	GameVersion string `json:"game_version,omitempty"`
	GameName    string `json:"game_name,omitempty"`
	HostName    string `json:"host_name,omitempty"`
}

// RoomSummary is one entry of a list_rooms reply.
type RoomSummary struct {
	RoomID         int64  `json:"room_id"`
	Host           string `json:"host"`
	GameName       string `json:"game_name"`
	GameID         int64  `json:"game_id"`
	CurrentPlayers int    `json:"current_players"`
	MaxPlayers     int    `json:"max_players"`
	Status         string `json:"status"`
}

// GameSummary is one entry of a list_games / developer_list_games reply.
type GameSummary struct {
	GameID          int64  `json:"game_id"`
	GameName        string `json:"game_name"`
	GameDescription string `json:"game_description"`
	MaxPlayers      int    `json:"max_players"`
	LatestVersion   string `json:"latest_version,omitempty"`
	LatestVersionID *int64 `json:"latest_version_id,omitempty"`
	UploadPath      string `json:"upload_path,omitempty"`
}

// GameDetail is the expanded catalog entry of a get_game_detail reply.
type GameDetail struct {
	GameID          int64  `json:"game_id"`
	GameName        string `json:"game_name"`
	GameDescription string `json:"game_description"`
	MaxPlayers      int    `json:"max_players"`
	LatestVersion   string `json:"latest_version,omitempty"`
	UploadPath      string `json:"upload_path,omitempty"`
}

// Rating is one player review of a game.
type Rating struct {
	Player    string `json:"player"`
	Score     int    `json:"score"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
}

// Fail builds a failure response for cmd with a structured code.
func Fail(cmd, code, message string) *Response {
	return &Response{Cmd: cmd, Error: code, Message: message}
}

// OKResp builds a success response for cmd.
func OKResp(cmd, message string) *Response {
	return &Response{OK: true, Cmd: cmd, Message: message}
}
