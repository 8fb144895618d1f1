package model

import (
	"time"
)

type User struct {
	ID        uint64  `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"type:varchar(50);not null" json:"name"`
	Phone     *string `gorm:"type:varchar(30);uniqueIndex:idx_phone" json:"phone,omitempty"`
	Email     *string `gorm:"type:varchar(120);uniqueIndex:idx_email" json:"email,omitempty"`
	Password  *string `gorm:"type:varchar(255)" json:"-"`
	AvatarURL string  `gorm:"type:varchar(255)" json:"avatarUrl"`
	Role      Role    `gorm:"type:varchar(20);not null;default:'student';index" json:"role"`
	IsBan     bool    `gorm:"default:false" json:"isBan"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string {
	return "users"
}

// ToChatUser 转换为聊天身份
func (u *User) ToChatUser() ChatUser {
	cu := ChatUser{
		ID:     u.ID,
		Name:   u.Name,
		Avatar: u.AvatarURL,
		Role:   u.Role,
	}
	if u.Email != nil {
		cu.Email = *u.Email
	}
	return cu
}

// ToCounterpart 转换为会话对方信息
func (u *User) ToCounterpart() Counterpart {
	return Counterpart{
		ID:     u.ID,
		Name:   u.Name,
		Avatar: u.AvatarURL,
		Role:   u.Role,
	}
}
