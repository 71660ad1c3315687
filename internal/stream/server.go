// Package stream serves playback snapshots over websocket. Every connection
// drives its own player; commands from one client never touch another.
package stream

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"mocap-retarget/internal/logging"
	"mocap-retarget/internal/playback"
	"mocap-retarget/internal/scene"
)

const (
	DefaultFPS   = 120
	writeTimeout = 5 * time.Second
)

// Client commands. "seek N" takes a frame index.
const (
	CmdPlay   = "play"
	CmdPause  = "pause"
	CmdToggle = "toggle"
	CmdNext   = "next"
	CmdPrev   = "prev"
	CmdReset  = "reset"
	CmdSeek   = "seek"
)

// Server upgrades HTTP requests to websocket sessions over one scene.
type Server struct {
	upgrader websocket.Upgrader
	scene    *scene.Scene
	interval time.Duration

	// AutoPlay starts new sessions in Playing instead of RestPose.
	AutoPlay bool
}

// NewServer returns a server ticking at fps (DefaultFPS if fps <= 0).
func NewServer(sc *scene.Scene, fps int) *Server {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		scene:    sc,
		interval: time.Second / time.Duration(fps),
	}
}

// Handler returns the HTTP routes: /ws for the stream, /info for scene metadata.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/info", s.handleInfo)
	return mux
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"frames":%d,"source_joints":%d,"target_joints":%d}`,
		s.scene.Motion.Len(), s.scene.Source.Len(), s.scene.Target.Len())
}

// HandleWS runs one session until the client disconnects.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger().Warn("stream: upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	player, err := s.scene.NewPlayer()
	if err != nil {
		logging.Logger().Error("stream: new player", "err", err)
		return
	}
	if s.AutoPlay {
		player.Play()
	}

	log := logging.Logger().With("remote", conn.RemoteAddr().String())
	log.Info("stream: session started")
	defer log.Info("stream: session closed")

	// The reader goroutine only forwards commands; the player is touched by
	// this goroutine alone.
	commands := make(chan string, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(commands)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case commands <- strings.TrimSpace(string(msg)):
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			if err := Apply(player, cmd); err != nil {
				log.Debug("stream: command rejected", "cmd", cmd, "err", err)
			}
		case <-ticker.C:
			snap, err := player.Tick()
			if err != nil {
				log.Error("stream: tick", "err", err)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		}
	}
}

// ErrUnknownCommand is returned by Apply for unrecognised input.
var ErrUnknownCommand = errors.New("stream: unknown command")

// Apply executes one client command against p.
func Apply(p *playback.Player, cmd string) error {
	f := strings.Fields(strings.ToLower(cmd))
	if len(f) == 0 {
		return ErrUnknownCommand
	}
	switch f[0] {
	case CmdPlay:
		return p.Play()
	case CmdPause:
		return p.Pause()
	case CmdToggle:
		return p.Toggle()
	case CmdNext:
		return p.Step(1)
	case CmdPrev:
		return p.Step(-1)
	case CmdReset:
		return p.Reset()
	case CmdSeek:
		if len(f) != 2 {
			return fmt.Errorf("%w: seek needs a frame index", ErrUnknownCommand)
		}
		i, err := strconv.Atoi(f[1])
		if err != nil {
			return fmt.Errorf("%w: seek %q", ErrUnknownCommand, f[1])
		}
		return p.Seek(i)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
}
