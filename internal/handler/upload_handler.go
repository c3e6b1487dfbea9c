package handler

import (
	"io"
	"net/http"

	"support-chat/internal/services"
	"support-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// UploadHandler stores message attachments and returns their public URL. The
// caller then references the URL in a normal send.
type UploadHandler struct {
	uploads *services.UploadService
}

func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

type uploadResponse struct {
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	FileMime string `json:"file_mime"`
	FileSize int64  `json:"file_size"`
}

func (h *UploadHandler) Upload(c *gin.Context) {
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("missing file", "INVALID_REQUEST"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("unreadable file", "INVALID_REQUEST"))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("unreadable file", "INVALID_REQUEST"))
		return
	}

	att, err := h.uploads.Store(c.Request.Context(), convID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(uploadResponse{
		FileURL:  att.URL,
		FileName: att.Name,
		FileMime: att.Mime,
		FileSize: att.Size,
	}))
}
