package handler

import (
	"EdVix/internal/api/dto"
	"EdVix/internal/model"
	"EdVix/internal/pkg/consts"
	"EdVix/internal/pkg/response"
	"EdVix/internal/pkg/util"
	"EdVix/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler 手机验证码登录流程，按 X-Session-ID 区分客户端
type AuthHandler struct {
	verifySvc service.VerificationService
}

func NewAuthHandler(verifySvc service.VerificationService) *AuthHandler {
	return &AuthHandler{verifySvc: verifySvc}
}

func (h *AuthHandler) Start(c *gin.Context) {
	sessionID, ok := requireSessionID(c)
	if !ok {
		return
	}
	var req dto.StartOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	res, err := h.verifySvc.Start(c.Request.Context(), sessionID, req.Phone, model.Role(req.Role))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (h *AuthHandler) Resend(c *gin.Context) {
	sessionID, ok := requireSessionID(c)
	if !ok {
		return
	}
	res, err := h.verifySvc.Resend(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (h *AuthHandler) Verify(c *gin.Context) {
	sessionID, ok := requireSessionID(c)
	if !ok {
		return
	}
	var req dto.VerifyOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.verifySvc.Verify(c.Request.Context(), sessionID, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (h *AuthHandler) Reset(c *gin.Context) {
	sessionID, ok := requireSessionID(c)
	if !ok {
		return
	}
	response.Success(c, h.verifySvc.Reset(c.Request.Context(), sessionID))
}

func (h *AuthHandler) Status(c *gin.Context) {
	sessionID, ok := requireSessionID(c)
	if !ok {
		return
	}
	response.Success(c, h.verifySvc.Status(c.Request.Context(), sessionID))
}

func requireSessionID(c *gin.Context) (string, bool) {
	id := c.GetString(consts.SessionIDKey)
	if id == "" {
		id = c.GetHeader(consts.SessionIDKey)
	}
	if id == "" {
		response.Error(c, service.ErrSessionMissing)
		return "", false
	}
	return id, true
}
