// Package admin exposes a small read-only-by-default HTTP plane alongside
// the RESP listener: health, stats, and a couple of debug inspectors.
// None of this is part of the wire protocol; it exists purely for
// operators.
package admin

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vaultkv/vaultkv/internal/store"
	"github.com/vaultkv/vaultkv/pkg/fmtt"
	"github.com/vaultkv/vaultkv/pkg/jsonx"
)

// Server is the admin HTTP plane: a thin gin.Engine wrapper over the
// shared keyspace plus a small ring of recently observed errors.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
	store      *store.Store
	startedAt  time.Time
	errs       *errRing
}

// Config controls the admin listener and CORS policy.
type Config struct {
	Addr           string
	AllowedOrigins []string // empty disables CORS entirely (same-origin/tools only)
}

// New builds the admin HTTP server. It does not start listening; call
// ListenAndServe (typically from an errgroup alongside the RESP server).
func New(cfg Config, st *store.Store, log *zap.Logger) *Server {
	log = log.Named("admin")
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		log:       log,
		store:     st,
		startedAt: time.Now(),
		errs:      newErrRing(64),
	}

	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery())
	r.Use(zapAccessLog(log))

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.handleHealthz)
	r.GET("/stats", s.handleStats)
	r.GET("/debug/keyspace", s.handleDebugKeyspace)
	r.GET("/debug/errors", s.handleDebugErrors)
	r.POST("/debug/expire", s.handleDebugExpire)

	s.httpServer = &http.Server{
		Addr:           cfg.Addr,
		Handler:        r,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		IdleTimeout:    30 * time.Second,
		MaxHeaderBytes: 1 << 15,
		ErrorLog:       zap.NewStdLog(log.WithOptions(zap.AddCallerSkip(1))),
	}
	return s
}

// ListenAndServe blocks serving the admin plane until it is shut down.
func (s *Server) ListenAndServe() error {
	s.log.Info("admin HTTP listening", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// RecordError appends err (with a spew-dumped structural snapshot) to the
// admin plane's recent-errors ring, surfaced at /debug/errors. At debug
// log level it also walks the error chain verbosely via pkg/fmtt, since
// these are exactly the malformed-input/decode paths that dumping helps
// diagnose.
func (s *Server) RecordError(context string, err error) {
	s.errs.push(context, err)
	if ce := s.log.Check(zap.DebugLevel, "recorded error"); ce != nil {
		fmtt.PrintErrChainDebug(err)
		ce.Write(zap.String("context", context), zap.Error(err))
	}
}

func zapAccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("admin request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"keys":           s.store.KeyCount(),
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleDebugKeyspace(c *gin.Context) {
	snap := s.store.Snapshot()
	out := make([]gin.H, len(snap))
	for i, k := range snap {
		entry := gin.H{"key": k.Key, "type": k.Kind.String()}
		if !k.Expiry.IsZero() {
			entry["expires_at"] = k.Expiry.UTC().Format(time.RFC3339Nano)
		}
		out[i] = entry
	}
	c.JSON(http.StatusOK, gin.H{"keys": out})
}

func (s *Server) handleDebugErrors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"errors": s.errs.snapshot()})
}

// expireReq is the POST /debug/expire body: key is required; ttl_ms is
// tri-state — absent leaves the expiry untouched (a no-op, rejected as a
// bad request since it would do nothing), null persists the key, and a
// number sets a new millisecond TTL.
type expireReq struct {
	Key   string             `json:"key"`
	TTLMs jsonx.Field[int64] `json:"ttl_ms"`
}

func (s *Server) handleDebugExpire(c *gin.Context) {
	var req expireReq
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		s.RecordError("debug/expire decode", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.Key == "" || !req.TTLMs.IsSet() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "key and ttl_ms are required"})
		return
	}

	var ttlMs *int64
	if !req.TTLMs.IsNull() {
		v, _ := req.TTLMs.Value()
		ttlMs = &v
	}

	if !s.store.SetExpiry(req.Key, ttlMs) {
		c.JSON(http.StatusNotFound, gin.H{"message": "no such key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": req.Key})
}
