package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/api/middleware"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/api/validator"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/chatbot"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/llm"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/store"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/tasks/rate"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

type ChatHandler struct {
	engine       *chatbot.Engine
	chats        *store.ChatStore
	limiter      *rate.ChatRateLimiter
	historyLimit int
	log          *logger.Logger
}

func NewChatHandler(engine *chatbot.Engine, chats *store.ChatStore, limiter *rate.ChatRateLimiter, historyLimit int) *ChatHandler {
	return &ChatHandler{
		engine:       engine,
		chats:        chats,
		limiter:      limiter,
		historyLimit: historyLimit,
		log:          logger.New("chat_handler"),
	}
}

// Ask godoc
// @Summary Ask a question about accessible documents
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body validator.ChatRequest true "Question"
// @Success 200 {object} map[string]string
// @Router /chat [post]
func (h *ChatHandler) Ask(c echo.Context) error {
	var req validator.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sess := middleware.GetSession(c)

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(c.Request().Context(), sess.UserID)
		if err != nil {
			h.log.Warn("Rate limiter unavailable, allowing request: %v", err)
		} else if !allowed {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many questions, slow down")
		}
	}

	response := h.engine.Answer(c.Request().Context(), sess, req.Message, llm.Params{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})

	return c.JSON(http.StatusOK, map[string]string{"response": response})
}

// History godoc
// @Summary Get recent chat history
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max exchanges to return"
// @Success 200 {object} map[string]interface{}
// @Router /chat/history [get]
func (h *ChatHandler) History(c echo.Context) error {
	sess := middleware.GetSession(c)

	limit := h.historyLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	history, err := h.chats.History(c.Request().Context(), sess.UserID, limit)
	if err != nil {
		return h.log.Error("Failed to load chat history", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"history": history})
}
