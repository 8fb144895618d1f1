package handler

import (
	"EdVix/internal/api/dto"
	"EdVix/internal/model"
	"EdVix/internal/pkg/consts"
	"EdVix/internal/pkg/response"
	"EdVix/internal/pkg/util"
	"EdVix/internal/service"
	log "log/slog"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxAvatarSize = 5 << 20

type UserHandler struct {
	userSvc service.UserService
}

func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func (s *UserHandler) Register(c *gin.Context) {
	var registerDTO dto.RegisterDTO
	if err := c.ShouldBind(&registerDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&registerDTO); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	res, err := s.userSvc.Register(c.Request.Context(), &registerDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *UserHandler) Login(c *gin.Context) {
	var loginDTO dto.LoginDTO
	if err := c.ShouldBind(&loginDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&loginDTO); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	res, err := s.userSvc.Login(c.Request.Context(), &loginDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *UserHandler) SendEmailCode(c *gin.Context) {
	var req dto.EmailCodeDTO
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	if err := s.userSvc.SendEmailCode(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserHandler) LoginByEmailCode(c *gin.Context) {
	var req dto.EmailLoginDTO
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	res, err := s.userSvc.LoginByEmailCode(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *UserHandler) Logout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := s.userSvc.Logout(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserHandler) GetUserInfo(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	res, err := s.userSvc.GetUserInfo(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// ListByRole 按角色列出用户，学生端据此浏览导师
func (s *UserHandler) ListByRole(c *gin.Context) {
	role := model.Role(c.DefaultQuery("role", string(model.RoleTutor)))
	res, err := s.userSvc.ListUsersByRole(c.Request.Context(), role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *UserHandler) UploadAvatar(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	file, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, response.BadRequest, "请上传头像文件")
		return
	}
	if file.Size > maxAvatarSize {
		response.Fail(c, response.BadRequest, "头像文件不能超过 5MB")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, consts.MimePrefixImage) {
		response.Error(c, service.ErrFileNotSupported)
		return
	}

	src, err := file.Open()
	if err != nil {
		log.ErrorContext(c.Request.Context(), "open avatar file failed", "err", err)
		response.Error(c, service.UnExpectedError)
		return
	}
	defer func() {
		_ = src.Close()
	}()

	res, err := s.userSvc.UploadAvatar(c.Request.Context(), userID, src, contentType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *UserHandler) GetNoticeFlag(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	key := c.Param("key")
	seen, err := s.userSvc.HasSeenNotice(c.Request.Context(), userID, key)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NoticeFlagDTO{Key: key, Seen: seen})
}

func (s *UserHandler) MarkNoticeSeen(c *gin.Context) {
	userID := c.GetUint64(consts.CtxUserID)
	key := c.Param("key")
	if err := s.userSvc.MarkNoticeSeen(c.Request.Context(), userID, key); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NoticeFlagDTO{Key: key, Seen: true})
}
