package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. A bucket refills
// maxRequest tokens every window and holds at most maxRequest.
type RateLimiter struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	limit      rate.Limit
	burst      int
	idle       time.Duration
	retryAfter int
	lastSweep  time.Time
	now        func() time.Time
	onRejected func()
}

func NewRateLimiter(maxRequest int, window time.Duration) *RateLimiter {
	limit := float64(maxRequest) / window.Seconds()
	return &RateLimiter{
		visitors:   make(map[string]*visitor),
		limit:      rate.Limit(limit),
		burst:      maxRequest,
		idle:       window * 3,
		retryAfter: max(1, int(math.Ceil(1/limit))),
		now:        time.Now,
		onRejected: func() {},
	}
}

// OnRejected sets a callback run for every rejected request.
func (rl *RateLimiter) OnRejected(fn func()) *RateLimiter {
	if fn != nil {
		rl.onRejected = fn
	}
	return rl
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.idle {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.idle {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if rl.allow(ip) {
			c.Next()
			return
		}

		rl.onRejected()
		logger.WarnWithContext(c.Request.Context(), "Rate limit exceeded").
			String("client_ip", ip).
			Method(c.Request.Method).
			Path(c.Request.URL.Path).
			Log()

		c.Header("Retry-After", strconv.Itoa(rl.retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests,
			constants.BuildErrorResponse(http.StatusTooManyRequests, constants.MsgRateLimited))
	}
}
