package util

import (
	"crypto/rand"
	"math/big"
)

const digits = "0123456789"

var digitCount = big.NewInt(int64(len(digits)))

// GenerateCode 生成指定长度的数字验证码
func GenerateCode(length int) string {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, digitCount)
		if err != nil {
			// crypto/rand 在受支持的平台上不会失败
			panic(err)
		}
		code[i] = digits[n.Int64()]
	}
	return string(code)
}
