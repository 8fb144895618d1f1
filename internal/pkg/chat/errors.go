package chat

import "errors"

var (
	ErrNotFound          = errors.New("会话不存在")
	ErrNotMember         = errors.New("用户不属于该会话")
	ErrMessageEmpty      = errors.New("消息内容不能为空")
	ErrTargetUserInvalid = errors.New("目标用户无效")
)
