package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/psds-microservice/support-chat/internal/dialogue"
	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/psds-microservice/support-chat/internal/service"
)

type ChatHandler struct {
	svc       service.ChatServicer
	uploadDir string
}

func NewChatHandler(svc service.ChatServicer, uploadDir string) *ChatHandler {
	return &ChatHandler{svc: svc, uploadDir: uploadDir}
}

type attachmentRequest struct {
	Name     string `json:"name"`
	Locator  string `json:"locator" binding:"required"`
	MimeType string `json:"mime_type"`
}

type sendMessageRequest struct {
	Text       string             `json:"text"`
	Attachment *attachmentRequest `json:"attachment"`
}

type turnResponse struct {
	SessionID   string          `json:"session_id"`
	Messages    []model.Message `json:"messages"`
	Mode        model.Mode      `json:"mode"`
	MenuVisible bool            `json:"menu_visible"`
	Ticket      *model.Ticket   `json:"ticket,omitempty"`
	Agent       *model.Agent    `json:"agent,omitempty"`
	// AgentAvailable is false when the ticket fell back to an unavailable agent.
	AgentAvailable *bool `json:"agent_available,omitempty"`
}

func newTurnResponse(id string, r dialogue.Reply) turnResponse {
	resp := turnResponse{SessionID: id, Messages: r.Messages, Ticket: r.Ticket}
	if resp.Messages == nil {
		resp.Messages = []model.Message{}
	}
	if r.Session != nil {
		resp.Mode = r.Session.Mode
		resp.MenuVisible = r.Session.MenuVisible
	}
	if r.Assignment != nil {
		agent, avail := r.Assignment.Agent, r.Assignment.Available
		resp.Agent = &agent
		resp.AgentAvailable = &avail
	}
	return resp
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	s, err := h.svc.CreateSession(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *ChatHandler) GetSession(c *gin.Context) {
	s, err := h.svc.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// SendMessage accepts JSON {text, attachment} or a multipart form with a text
// field and an optional file.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var turn dialogue.Turn
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		t, err := h.multipartTurn(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		turn = t
	} else {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		turn.Text = req.Text
		if req.Attachment != nil {
			turn.Attachment = &model.Attachment{
				Name:     req.Attachment.Name,
				Locator:  req.Attachment.Locator,
				MimeType: req.Attachment.MimeType,
			}
		}
	}

	id := c.Param("id")
	reply, err := h.svc.Send(c.Request.Context(), id, turn)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTurnResponse(id, reply))
}

func (h *ChatHandler) multipartTurn(c *gin.Context) (dialogue.Turn, error) {
	turn := dialogue.Turn{Text: c.PostForm("text")}
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return turn, nil
	}
	if err != nil {
		return turn, errors.New("invalid multipart form")
	}
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return turn, err
	}
	dst := filepath.Join(h.uploadDir, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return turn, err
	}
	turn.Attachment = &model.Attachment{
		Name:     filepath.Base(fh.Filename),
		Locator:  dst,
		MimeType: fh.Header.Get("Content-Type"),
	}
	return turn, nil
}

func (h *ChatHandler) SelectProduct(c *gin.Context) {
	id := c.Param("id")
	reply, err := h.svc.SelectProduct(c.Request.Context(), id, c.Param("productId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTurnResponse(id, reply))
}

func (h *ChatHandler) Reset(c *gin.Context) {
	s, err := h.svc.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *ChatHandler) Tickets(c *gin.Context) {
	items, err := h.svc.Tickets(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets": items,
		"total":   len(items),
	})
}

func (h *ChatHandler) Menu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"options": h.svc.Menu()})
}

func (h *ChatHandler) GetOrder(c *gin.Context) {
	o, err := h.svc.LookupOrder(c.Param("orderNumber"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *ChatHandler) Agents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": h.svc.Agents()})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrEmptyInput), errors.Is(err, errs.ErrInvalidOrderFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrSessionNotFound), errors.Is(err, errs.ErrOrderNotFound), errors.Is(err, errs.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrTurnSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "request cancelled"})
	default:
		slog.Error("handler: request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
