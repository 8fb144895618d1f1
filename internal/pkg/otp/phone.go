package otp

import (
	"regexp"
	"strings"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

var phoneReplacer = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// NormalizePhone 去除分隔符并校验格式，允许前导 + 国家码
func NormalizePhone(phone string) (string, error) {
	p := phoneReplacer.Replace(strings.TrimSpace(phone))
	if !phoneRegex.MatchString(p) {
		return "", ErrInvalidPhone
	}
	return p, nil
}

// ValidCode 是否为指定长度的纯数字验证码
func ValidCode(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
