package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "tenantdesk"

// ErrInvalidCredential 签名错误、被篡改或已过期的令牌统一返回此错误
var ErrInvalidCredential = errors.New("invalid credential")

// Identity 令牌中携带的用户身份
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"` // 空字符串表示全局用户
	RoleID   string `json:"role_id"`
}

// IsGlobal 不属于任何租户的身份
func (i Identity) IsGlobal() bool {
	return i.TenantID == ""
}

// Claims JWT声明
type Claims struct {
	Identity
	jwt.RegisteredClaims
}

// JWTManager JWT管理器
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}
}

// WithClock 替换时钟，签发和校验使用同一时钟
func (manager *JWTManager) WithClock(now func() time.Time) *JWTManager {
	manager.now = now
	return manager
}

// GenerateToken 按默认有效期生成令牌
func (manager *JWTManager) GenerateToken(identity Identity) (string, error) {
	return manager.Sign(identity, manager.tokenDuration)
}

// Sign 生成JWT令牌，ttl<=0 时使用默认有效期
func (manager *JWTManager) Sign(identity Identity, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = manager.tokenDuration
	}
	now := manager.now()

	claims := Claims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(manager.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken 验证JWT令牌
func (manager *JWTManager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return manager.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(manager.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredential
	}

	return claims, nil
}

// GetTokenDuration 获取令牌有效期
func (manager *JWTManager) GetTokenDuration() time.Duration {
	return manager.tokenDuration
}
