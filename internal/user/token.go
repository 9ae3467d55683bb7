package user

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// NewToken 生成一个新的不透明承载凭证。
// 凭证本身只下发一次，服务端仅保存其摘要。
func NewToken() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("无法生成UUID v7: %w", err)
	}
	return id.String(), nil
}

// HashToken 返回凭证的SHA-256十六进制摘要。
// 凭证是128位随机值，确定性摘要即可安全地作为索引键。
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
