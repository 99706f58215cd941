package ids

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewConnID 生成网关内唯一的连接ID。
func NewConnID() string {
	return uuid.NewString()
}

// NewToken returns a random hex token for email verification / password reset links.
func NewToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand 不可用时退回 uuid，仍然不可预测
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}
