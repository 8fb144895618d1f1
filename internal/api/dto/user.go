package dto

import "time"

// UserDTO 用户
type UserDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	AvatarURL string    `json:"avatar_url"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterDTO 邮箱密码注册
type RegisterDTO struct {
	Name     string `json:"name" binding:"required" validate:"min=1,max=50"`
	Email    string `json:"email" binding:"required" validate:"email"`
	Password string `json:"password" binding:"required" validate:"min=6,max=20"`
	Role     string `json:"role" validate:"omitempty,oneof=student tutor"`
}

// LoginDTO 邮箱密码登录
type LoginDTO struct {
	Email    string `json:"email" binding:"required" validate:"email"`
	Password string `json:"password" binding:"required"`
}

// EmailCodeDTO 请求邮箱验证码
type EmailCodeDTO struct {
	Email string `json:"email" binding:"required" validate:"email"`
}

// EmailLoginDTO 邮箱验证码登录，未注册时自动创建
type EmailLoginDTO struct {
	Email string `json:"email" binding:"required" validate:"email"`
	Code  string `json:"code" binding:"required" validate:"len=6,numeric"`
	Name  string `json:"name" validate:"omitempty,max=50"`
	Role  string `json:"role" validate:"omitempty,oneof=student tutor"`
}

// TokenDTO 登录结果
type TokenDTO struct {
	Token string   `json:"token"`
	User  *UserDTO `json:"user"`
}

// NoticeFlagDTO 一次性提示是否已展示
type NoticeFlagDTO struct {
	Key  string `json:"key"`
	Seen bool   `json:"seen"`
}
