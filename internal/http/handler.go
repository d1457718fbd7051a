// Package http exposes the chat webhook surface: start a session, send a
// message, get the bot reply.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leen2210/Chatbot-Samator/internal/conversation"
	"github.com/Leen2210/Chatbot-Samator/platform/apperr"
	"github.com/Leen2210/Chatbot-Samator/platform/logger"
	"github.com/Leen2210/Chatbot-Samator/platform/phone"
	"github.com/Leen2210/Chatbot-Samator/platform/validator"
)

type Handler struct {
	router *conversation.Router
	val    *validator.Validator
	log    *logger.Logger
}

func NewHandler(router *conversation.Router, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{router: router, val: val, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.startSession)
	rg.POST("/messages", h.handleMessage)
}

// writeError maps typed domain errors to status codes. Anything untyped is
// an internal error and gets logged with the request context.
func (h *Handler) writeError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Wrap(apperr.KindInternal, "internal server error", err)
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.log.HTTPError(c.Request.Method, c.Request.URL.Path, status, err, c.ClientIP())
	}
	c.JSON(status, gin.H{"error": appErr.Message})
}

type startSessionRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=6"`
}

type startSessionResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
	Language       string `json:"language"`
}

func (h *Handler) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.val.Struct(req); err != nil {
		h.writeError(c, apperr.Validation("phone_number is required"))
		return
	}

	conv, welcome, err := h.router.Start(c.Request.Context(), phone.NormalizeE164(req.PhoneNumber))
	if err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "failed to start session", err))
		return
	}

	c.JSON(http.StatusOK, startSessionResponse{
		ConversationID: conv.ID.String(),
		Reply:          welcome,
		Language:       string(conv.Language),
	})
}

type messageRequest struct {
	ConversationID string `json:"conversation_id" validate:"required,uuid4"`
	Message        string `json:"message" validate:"required"`
}

type messageResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

func (h *Handler) handleMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.val.Struct(req); err != nil {
		h.writeError(c, apperr.Validation("conversation_id and message are required"))
		return
	}

	id, err := uuid.Parse(req.ConversationID)
	if err != nil {
		h.writeError(c, apperr.BadRequest("invalid conversation_id"))
		return
	}

	reply, err := h.router.Handle(c.Request.Context(), id, req.Message)
	if err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			h.writeError(c, apperr.Wrap(apperr.KindNotFound, "conversation not found", err))
			return
		}
		h.writeError(c, apperr.Wrap(apperr.KindInternal, "failed to handle message", err))
		return
	}

	c.JSON(http.StatusOK, messageResponse{
		ConversationID: req.ConversationID,
		Reply:          reply,
	})
}
