package security

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims 连接令牌中携带的身份信息
type UserClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
