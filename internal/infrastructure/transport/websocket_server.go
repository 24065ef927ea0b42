package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"syncwatch/internal/core/domain"
	"syncwatch/internal/core/services"
	apperrors "syncwatch/pkg/errors"
	"syncwatch/pkg/utils"
	"syncwatch/pkg/validation"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Options tunes connection handling.
type Options struct {
	PingInterval    time.Duration
	PongTimeout     time.Duration
	WriteTimeout    time.Duration
	SendBufferSize  int
	MaxMessageBytes int64
	// MessagesPerSecond/Burst throttle operations per connection;
	// zero disables throttling.
	MessagesPerSecond float64
	Burst             int
}

func DefaultOptions() Options {
	return Options{
		PingInterval:    30 * time.Second,
		PongTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		SendBufferSize:  64,
		MaxMessageBytes: 16 * 1024,
	}
}

// client is one websocket connection bound to a participant in a room.
type client struct {
	roomID        domain.RoomID
	participantID domain.ParticipantID
	conn          *websocket.Conn
	send          chan ServerFrame
	limiter       *rate.Limiter
}

// WebSocketServer is the transport collaborator: it carries
// participant-originated operations to the matching room aggregate and
// fans committed deltas back out to everyone connected to that room.
// It implements ports.Broadcaster.
type WebSocketServer struct {
	directory *services.Directory
	auth      services.AuthService
	opts      Options

	mu      sync.RWMutex
	clients map[domain.RoomID]map[domain.ParticipantID]*client

	metrics BroadcastMetrics
	logger  *zap.SugaredLogger
}

// BroadcastMetrics counts fan-out outcomes. Optional.
type BroadcastMetrics interface {
	DeltaBroadcast(roomID domain.RoomID)
	DeltaDropped(roomID domain.RoomID)
}

func NewWebSocketServer(auth services.AuthService, opts Options, logger *zap.SugaredLogger) *WebSocketServer {
	return &WebSocketServer{
		auth:    auth,
		opts:    opts,
		clients: make(map[domain.RoomID]map[domain.ParticipantID]*client),
		logger:  logger,
	}
}

// SetDirectory wires the room directory. Must be called before serving.
func (s *WebSocketServer) SetDirectory(d *services.Directory) {
	s.directory = d
}

// SetMetrics attaches optional broadcast metrics.
func (s *WebSocketServer) SetMetrics(m BroadcastMetrics) {
	s.metrics = m
}

// Broadcast delivers a committed delta to every connection of the room.
// Sends are non-blocking: a participant whose buffer is full misses the
// delta and recovers via snapshot resync, mutation processing is never
// held up by a slow consumer.
func (s *WebSocketServer) Broadcast(roomID domain.RoomID, delta domain.Delta) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	frame := ServerFrame{Type: FrameDelta, Delta: &delta}
	for _, c := range s.clients[roomID] {
		select {
		case c.send <- frame:
			if s.metrics != nil {
				s.metrics.DeltaBroadcast(roomID)
			}
		default:
			if s.metrics != nil {
				s.metrics.DeltaDropped(roomID)
			}
			s.logger.Warnw("send buffer full, delta dropped",
				"room_id", roomID, "participant_id", c.participantID, "delta", delta.Type)
		}
	}
}

// ConnectedCount reports live connections, for health reporting.
func (s *WebSocketServer) ConnectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, room := range s.clients {
		n += len(room)
	}
	return n
}

// HandleWebSocket upgrades the connection, authenticates the session
// token, joins the participant to the room and pumps operations until
// the connection dies. Exactly one Leave is issued per connection.
func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	claims, err := s.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	roomCode := r.URL.Query().Get("room_id")
	if err := validation.ValidateRoomCode(roomCode); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	roomID := domain.RoomID(roomCode)
	roomName := r.URL.Query().Get("name")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	room := s.directory.Room(roomID, roomName)
	_, snapshot, err := room.Join(claims.ParticipantID, claims.DisplayName)
	if err != nil {
		appErr := apperrors.FromDomain(err)
		conn.WriteJSON(ServerFrame{Type: FrameError, Code: string(appErr.Code), Message: appErr.Message})
		return
	}

	c := &client{
		roomID:        roomID,
		participantID: claims.ParticipantID,
		conn:          conn,
		send:          make(chan ServerFrame, s.opts.SendBufferSize),
	}
	if s.opts.MessagesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(s.opts.MessagesPerSecond), s.opts.Burst)
	}
	s.register(c)
	s.logger.Infow("participant connected", "room_id", roomID, "participant_id", c.participantID)

	go s.writePump(c)

	c.send <- ServerFrame{
		Type:             FrameSnapshot,
		State:            &snapshot,
		DriftThresholdMS: room.DriftThreshold().Milliseconds(),
	}

	s.readLoop(c, room)

	// Cleanup. A replaced connection (same participant reconnected) must
	// not issue the Leave for its successor.
	if s.unregister(c) {
		if err := room.Leave(c.participantID); err != nil {
			s.logger.Debugw("leave after disconnect", "participant_id", c.participantID, "error", err)
		}
	}
	close(c.send)
	s.logger.Infow("participant disconnected", "room_id", roomID, "participant_id", c.participantID)
}

func (s *WebSocketServer) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.clients[c.roomID]
	if !ok {
		room = make(map[domain.ParticipantID]*client)
		s.clients[c.roomID] = room
	}
	if old, ok := room[c.participantID]; ok && old != c {
		old.conn.Close()
		s.logger.Infow("closing old connection for reconnecting participant",
			"room_id", c.roomID, "participant_id", c.participantID)
	}
	room[c.participantID] = c
}

// unregister removes the client and reports whether it was still the
// registered connection for its participant.
func (s *WebSocketServer) unregister(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.clients[c.roomID]
	if !ok || room[c.participantID] != c {
		return false
	}
	delete(room, c.participantID)
	if len(room) == 0 {
		delete(s.clients, c.roomID)
	}
	return true
}

func (s *WebSocketServer) writePump(c *client) {
	for frame := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
		if err := c.conn.WriteJSON(frame); err != nil {
			return
		}
	}
}

func (s *WebSocketServer) readLoop(c *client, room *services.Room) {
	c.conn.SetReadLimit(s.opts.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
		return nil
	})

	pingTicker := time.NewTicker(s.opts.PingInterval)
	defer pingTicker.Stop()

	messageChan := make(chan ClientMessage, 10)
	errorChan := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	// done unblocks the reader if this loop exits first (e.g. a failed
	// ping write) while messageChan is full; a channel send cannot be
	// interrupted by closing the connection.
	go func() {
		for {
			var msg ClientMessage
			if err := c.conn.ReadJSON(&msg); err != nil {
				select {
				case errorChan <- err:
				case <-done:
				}
				return
			}
			c.conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
			select {
			case messageChan <- msg:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case msg := <-messageChan:
			if c.limiter != nil && !c.limiter.Allow() {
				s.sendError(c, apperrors.NewAppError(apperrors.ErrCodeRateLimit, "too many operations", http.StatusTooManyRequests))
				continue
			}
			if err := s.handleMessage(c, room, msg); err != nil {
				s.sendError(c, apperrors.FromDomain(err))
			}

		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Infow("unexpected close", "participant_id", c.participantID, "error", err)
			}
			return
		}
	}
}

// handleMessage routes one operation to the room aggregate. Errors are
// returned to the issuing participant only; successful mutations
// broadcast their delta through the room itself.
func (s *WebSocketServer) handleMessage(c *client, room *services.Room, msg ClientMessage) error {
	switch msg.Type {
	case OpChat:
		var p ChatPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return domain.ErrInvalidInput
		}
		_, err := room.AppendMessage(c.participantID, p.Text)
		return err

	case OpSetSource:
		var p SetSourcePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return domain.ErrInvalidInput
		}
		var (
			source domain.VideoSource
			err    error
		)
		if p.ContentRef != "" {
			source, err = services.UploadSource(p.ContentRef)
		} else {
			source, err = services.ParseSource(p.URL)
		}
		if err != nil {
			return err
		}
		_, err = room.SetSource(c.participantID, source)
		return err

	case OpPlay:
		pos, err := positionOf(msg.Payload)
		if err != nil {
			return err
		}
		_, err = room.Play(c.participantID, pos)
		return err

	case OpPause:
		pos, err := positionOf(msg.Payload)
		if err != nil {
			return err
		}
		_, err = room.Pause(c.participantID, pos)
		return err

	case OpSeek:
		pos, err := positionOf(msg.Payload)
		if err != nil {
			return err
		}
		_, err = room.Seek(c.participantID, pos)
		return err

	case OpCreatePoll:
		var p CreatePollPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return domain.ErrInvalidInput
		}
		_, err := room.CreatePoll(c.participantID, p.Question, p.Options)
		return err

	case OpVote:
		var p VotePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return domain.ErrInvalidInput
		}
		_, err := room.Vote(c.participantID, domain.OptionID(p.OptionID))
		return err

	case OpClosePoll:
		_, err := room.ClosePoll(c.participantID)
		return err

	case OpReaction:
		var p ReactionPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return domain.ErrInvalidInput
		}
		_, err := room.SendReaction(c.participantID, p.Emoji)
		return err

	case OpToggleReactions:
		var p ToggleReactionsPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return domain.ErrInvalidInput
		}
		return room.ToggleReactions(c.participantID, p.Enabled)

	case OpSyncRequest:
		snapshot := room.Snapshot()
		s.sendFrame(c, ServerFrame{
			Type:             FrameSnapshot,
			State:            &snapshot,
			DriftThresholdMS: room.DriftThreshold().Milliseconds(),
		})
		return nil

	default:
		// The op type is client-controlled; keep it short in the error.
		return fmt.Errorf("%w: unknown operation type %q", domain.ErrInvalidInput, utils.TruncateString(msg.Type, 32))
	}
}

func positionOf(payload json.RawMessage) (time.Duration, error) {
	var p PositionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return 0, domain.ErrInvalidInput
	}
	if p.Position < 0 {
		return 0, domain.ErrInvalidInput
	}
	return time.Duration(p.Position * float64(time.Second)), nil
}

func (s *WebSocketServer) sendFrame(c *client, frame ServerFrame) {
	select {
	case c.send <- frame:
	default:
		s.logger.Warnw("send buffer full, frame dropped",
			"participant_id", c.participantID, "frame", frame.Type)
	}
}

func (s *WebSocketServer) sendError(c *client, appErr *apperrors.AppError) {
	s.sendFrame(c, ServerFrame{Type: FrameError, Code: string(appErr.Code), Message: appErr.Message})
}
