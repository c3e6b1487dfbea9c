package handler

import (
	"net/http"
	"time"

	"support-chat/internal/services"
	"support-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes maintenance operations meant to be hit by an external
// scheduler or an operator, not by the regular dashboard UI.
type AdminHandler struct {
	conversations *services.ConversationService
	archiveAfter  time.Duration
}

func NewAdminHandler(conversations *services.ConversationService, archiveAfter time.Duration) *AdminHandler {
	return &AdminHandler{conversations: conversations, archiveAfter: archiveAfter}
}

// ArchiveSweep archives conversations whose last message is older than the
// configured retention window.
func (h *AdminHandler) ArchiveSweep(c *gin.Context) {
	archived, err := h.conversations.ArchiveInactive(c.Request.Context(), h.archiveAfter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"archived": archived}))
}

// Reconcile repairs drift between the message log and the denormalized
// conversation aggregates.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	fixed, err := h.conversations.Reconcile(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"repaired": fixed}))
}
