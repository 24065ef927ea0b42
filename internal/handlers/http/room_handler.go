package http

import (
	"errors"
	"net/http"

	"syncwatch/internal/core/domain"
	"syncwatch/internal/core/ports"
	"syncwatch/internal/core/services"
	"syncwatch/internal/infrastructure/middleware"
	"syncwatch/pkg/utils"
	"syncwatch/pkg/validation"

	"github.com/gin-gonic/gin"
)

// RoomHandler exposes room creation and discovery over HTTP. Joining and all
// in-room operations go over the websocket transport; this surface only hands
// out room codes and answers "where does this room live".
type RoomHandler struct {
	directory   *services.Directory
	registry    ports.RoomRegistry
	authService services.AuthService
}

func NewRoomHandler(directory *services.Directory, registry ports.RoomRegistry, authService services.AuthService) *RoomHandler {
	return &RoomHandler{
		directory:   directory,
		registry:    registry,
		authService: authService,
	}
}

func (h *RoomHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		rooms := api.Group("/rooms")
		rooms.Use(middleware.AuthMiddleware(h.authService))
		{
			rooms.POST("", h.CreateRoom)
			rooms.GET("/:id", h.GetRoom)
			rooms.GET("/:id/state", h.GetRoomState)
		}
	}
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != "" {
		if err := validation.ValidateRoomName(req.Name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	roomID := domain.RoomID(utils.GenerateRoomCode())
	room := h.directory.Room(roomID, req.Name)
	state := room.Snapshot()

	c.JSON(http.StatusCreated, gin.H{
		"room_id": roomID,
		"name":    state.Name,
	})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID := domain.RoomID(c.Param("id"))
	if err := validation.ValidateRoomCode(string(roomID)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.directory.Lookup(roomID)
	if err == nil {
		state := room.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"room_id":           roomID,
			"name":              state.Name,
			"participant_count": len(state.Participants),
			"reactions_enabled": state.ReactionsEnabled,
		})
		return
	}

	// Not on this instance; another node may host it.
	if h.registry != nil {
		addr, rerr := h.registry.Resolve(c.Request.Context(), roomID)
		if rerr == nil {
			c.JSON(http.StatusOK, gin.H{
				"room_id":       roomID,
				"instance_addr": addr,
			})
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
}

func (h *RoomHandler) GetRoomState(c *gin.Context) {
	roomID := domain.RoomID(c.Param("id"))
	if err := validation.ValidateRoomCode(string(roomID)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.directory.Lookup(roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, room.Snapshot())
}
