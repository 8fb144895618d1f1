package dto

// StartOTPReq 发起手机号验证
type StartOTPReq struct {
	Phone string `json:"phone" binding:"required"`
	Role  string `json:"role" validate:"omitempty,oneof=student tutor"`
}

// VerifyOTPReq 提交验证码
type VerifyOTPReq struct {
	Code string `json:"code" binding:"required"`
}

// OTPSessionDTO 验证流程状态
type OTPSessionDTO struct {
	SessionID        string `json:"session_id"`
	PhoneNumber      string `json:"phone_number,omitempty"`
	Status           string `json:"status"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Attempts         int    `json:"attempts"`
	LastError        string `json:"last_error,omitempty"`
}

// OTPVerifyDTO 验证通过后的登录结果
type OTPVerifyDTO struct {
	OTPSessionDTO
	Token string   `json:"token"`
	User  *UserDTO `json:"user"`
}
