package consts

const (
	OtpCodeKey       = "otp:code:"
	OtpCheckTokenKey = "otp:token:"
	JwtDenyKey       = "jwt:deny:"
	NoticeFlagKey    = "notice:flag:"
	DemoUsersKey     = "demo:users:"
)
