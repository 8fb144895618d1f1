package handler

import (
	"EdVix/internal/api/dto"
	"EdVix/internal/pkg/consts"
	"EdVix/internal/pkg/response"
	"EdVix/internal/pkg/util"
	"EdVix/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatSvc service.ChatService
}

func NewChatHandler(chatSvc service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// List 会话列表，按最近活跃倒序
func (h *ChatHandler) List(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	res, err := h.chatSvc.ListConversations(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Start 发起会话，已存在时返回原会话
func (h *ChatHandler) Start(c *gin.Context) {
	var req dto.StartConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	userID := c.GetUint64(consts.CtxUserID)
	res, err := h.chatSvc.StartConversation(c.Request.Context(), userID, req.TargetUserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (h *ChatHandler) Get(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	res, err := h.chatSvc.GetConversation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (h *ChatHandler) Messages(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	res, err := h.chatSvc.GetMessages(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	userID := c.GetUint64(consts.CtxUserID)
	res, err := h.chatSvc.SendMessage(c.Request.Context(), userID, c.Param("id"), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	if err := h.chatSvc.MarkAsRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *ChatHandler) Unread(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	n, err := h.chatSvc.GetUnreadCount(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.UnreadDTO{UnreadCount: n})
}

func (h *ChatHandler) TotalUnread(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	n, err := h.chatSvc.TotalUnread(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.UnreadDTO{UnreadCount: n})
}
