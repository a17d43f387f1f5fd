package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/bodyworks/scheduler-api/internal/middleware"
	"github.com/bodyworks/scheduler-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CacheTTL         time.Duration
	RequestTimeout   time.Duration
	CORS             middleware.CORSConfig
}

func DefaultConfig() Config {
	return Config{
		RateLimitEnabled: true,
		RateLimit:        50,
		RateBurst:        100,
		CacheTTL:         15 * time.Second,
		RequestTimeout:   30 * time.Second,
		CORS:             middleware.DefaultCORSConfig(),
	}
}

// Router assembles the gin engine: ambient middleware, metrics, the
// public surface (login, health) and the token-guarded API.
type Router struct {
	engine    *gin.Engine
	auth      *middleware.AuthMiddleware
	metrics   *metrics.Metrics
	cfg       Config
	public    []Handler
	protected []Handler
}

// NewRouter builds the router. auth may be nil, which leaves the API
// unguarded; only tests do that.
func NewRouter(auth *middleware.AuthMiddleware, m *metrics.Metrics, cfg Config, public, protected []Handler) *Router {
	gin.SetMode(gin.ReleaseMode)

	return &Router{
		engine:    gin.New(),
		auth:      auth,
		metrics:   m,
		cfg:       cfg,
		public:    public,
		protected: protected,
	}
}

func (r *Router) Setup() {
	middleware.RegisterValidation()

	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger())
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.ErrorHandler())
	r.engine.Use(middleware.SecurityHeaders(middleware.DefaultSecurityConfig()))
	r.engine.Use(middleware.SizeLimit(middleware.DefaultSizeLimitConfig()))
	if r.cfg.RequestTimeout > 0 {
		r.engine.Use(middleware.Timeout(middleware.TimeoutConfig{Duration: r.cfg.RequestTimeout}))
	}
	r.engine.Use(middleware.CORS(r.cfg.CORS))
	if r.cfg.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  r.cfg.RateLimit,
			Burst: r.cfg.RateBurst,
		})
		r.engine.Use(limiter.RateLimit())
	}
	if r.metrics != nil {
		r.engine.Use(r.instrument())
	}

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	root := r.engine.Group("")
	for _, h := range r.public {
		h.RegisterRoutes(root)
	}

	api := r.engine.Group("/api/v1")
	if r.auth != nil {
		api.Use(r.auth.Authenticate())
	}
	if r.cfg.CacheTTL > 0 {
		api.Use(middleware.NewResponseCache(r.cfg.CacheTTL).Cache())
	}
	for _, h := range r.protected {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		r.metrics.RequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		r.metrics.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
