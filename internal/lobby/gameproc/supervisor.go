// Package gameproc launches and tracks the per-room authoritative game
// server processes. The broker talks to them only through process lifecycle:
// spawn, terminate, reap.
package gameproc

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"gamehub/internal/lobby/metrics"
)

// serverBinary is the entrypoint every unpacked game version must ship at
// its root.
const serverBinary = "server"

// portReportTimeout bounds how long a freshly launched game server gets to
// report its listening port.
const portReportTimeout = 10 * time.Second

// Supervisor owns the room-id → process table. Handlers never touch OS
// process handles directly.
type Supervisor struct {
	host string

	mu    sync.Mutex
	procs map[int64]*exec.Cmd
}

func NewSupervisor(host string) *Supervisor {
	return &Supervisor{
		host:  host,
		procs: make(map[int64]*exec.Cmd),
	}
}

// Launch starts the game server found in dir for the given room and returns
// the host and port it listens on. The child binds port 0 itself and reports
// the chosen port as its first stdout line ("PORT <n>"), which closes the
// window where a pre-probed ephemeral port could be stolen by another
// process before the child binds it.
func (s *Supervisor) Launch(dir string, roomID int64) (string, int, error) {
	cmd := exec.Command(filepath.Join(dir, serverBinary),
		"--host", s.host,
		"--port", "0",
		"--room-id", strconv.FormatInt(roomID, 10),
	)
	cmd.Dir = dir
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", 0, fmt.Errorf("piping game server stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", 0, fmt.Errorf("starting game server in %s: %w", dir, err)
	}

	firstLine := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(stdout)
		if scanner.Scan() {
			firstLine <- scanner.Text()
		}
		close(firstLine)
		// keep draining so the child never blocks on a full pipe
		for scanner.Scan() {
		}
	}()

	var port int
	select {
	case line, ok := <-firstLine:
		if !ok {
			cmd.Process.Kill()
			go cmd.Wait()
			return "", 0, fmt.Errorf("game server for room %d exited before reporting a port", roomID)
		}
		port, err = parsePortLine(line)
		if err != nil {
			cmd.Process.Kill()
			go cmd.Wait()
			return "", 0, err
		}
	case <-time.After(portReportTimeout):
		cmd.Process.Kill()
		go cmd.Wait()
		return "", 0, fmt.Errorf("game server for room %d did not report a port in time", roomID)
	}

	s.mu.Lock()
	s.procs[roomID] = cmd
	s.mu.Unlock()

	go s.reap(roomID, cmd)

	metrics.GamesRunning.Inc()
	slog.Info("game server launched", "room", roomID, "pid", cmd.Process.Pid, "port", port)
	return s.host, port, nil
}

func parsePortLine(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "PORT" {
		return 0, fmt.Errorf("unexpected game server port report %q", line)
	}
	port, err := strconv.Atoi(fields[1])
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("unexpected game server port report %q", line)
	}
	return port, nil
}

func (s *Supervisor) reap(roomID int64, cmd *exec.Cmd) {
	err := cmd.Wait()
	s.mu.Lock()
	if s.procs[roomID] == cmd {
		delete(s.procs, roomID)
	}
	s.mu.Unlock()
	metrics.GamesRunning.Dec()
	slog.Info("game server exited", "room", roomID, "err", err)
}

// Terminate stops the room's game server, if one is still tracked. A
// missing or already-exited process is not an error.
func (s *Supervisor) Terminate(roomID int64) {
	s.mu.Lock()
	cmd := s.procs[roomID]
	delete(s.procs, roomID)
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		slog.Debug("terminating game server", "room", roomID, "err", err)
	}
}

// Running reports whether a game server is still tracked for the room.
func (s *Supervisor) Running(roomID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.procs[roomID]
	return ok
}

// Shutdown terminates every tracked game server, best-effort.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.procs))
	for id := range s.procs {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.Terminate(id)
	}
}
