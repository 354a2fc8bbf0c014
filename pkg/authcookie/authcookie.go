package authcookie

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Name 令牌 cookie 名
const Name = "token"

// Options cookie 属性，MaxAge 与令牌有效期一致
type Options struct {
	MaxAge time.Duration
	Secure bool
}

// Set 写入令牌 cookie：httpOnly、SameSite=Strict、Path=/
func Set(c *gin.Context, token string, opts Options) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(Name, token, int(opts.MaxAge.Seconds()), "/", "", opts.Secure, true)
}

// Get 读取令牌 cookie
func Get(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Clear 写入立即过期的空 cookie
func Clear(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(Name, "", -1, "/", "", secure, true)
}
