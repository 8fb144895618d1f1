package consts

const (
	MimePrefixImage = "image"
)

const (
	DefaultAvatarURL = "default_avatar.png"
	AvatarSize       = 256
)

// Context / gin 键
const (
	CtxUserID    = "user_id"
	CtxRoles     = "roles"
	SessionIDKey = "X-Session-ID"
)

// 通知样式，与前端 toast variant 对应
const (
	NoticeVariantDefault     = "default"
	NoticeVariantSuccess     = "success"
	NoticeVariantDestructive = "destructive"
)
