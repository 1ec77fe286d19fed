package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/scan-site-discovery/internal/config"
	"github.com/couchcryptid/scan-site-discovery/internal/discovery"
	"github.com/couchcryptid/scan-site-discovery/internal/domain"
)

// Server bundles the router and dependencies for the discovery REST API.
type Server struct {
	cfg    *config.Config
	svc    *discovery.Service
	logger *slog.Logger
	engine *gin.Engine
}

// NewServer constructs a server with routes and middleware.
func NewServer(cfg *config.Config, svc *discovery.Service, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, svc: svc, logger: logger, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/api/v1")
	v1.POST("/discoveries", s.handleStartDiscovery)
	v1.GET("/discoveries/current", s.handleCurrent)
	v1.GET("/discoveries/current/overview", s.handleOverview)
	v1.GET("/discoveries/current/stations", s.handleStations)
	v1.GET("/discoveries/current/stations/:triplet/series", s.handleStationSeries)
}

type discoveryRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Count     int      `json:"count"`
}

func (s *Server) handleStartDiscovery(c *gin.Context) {
	var req discoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}

	snap, err := s.svc.StartDiscovery(discovery.Query{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Count:     req.Count,
	})
	if err != nil {
		if errors.Is(err, discovery.ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, snap)
}

func (s *Server) handleCurrent(c *gin.Context) {
	snap, err := s.svc.Current()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleOverview(c *gin.Context) {
	snap, err := s.svc.Current()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": snap.SessionID,
		"state":      snap.State,
		"progress":   snap.Progress,
		"count":      len(snap.Rows),
		"rows":       snap.Rows,
	})
}

func (s *Server) handleStations(c *gin.Context) {
	snap, err := s.svc.Current()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": snap.SessionID,
		"count":      len(snap.Stations),
		"stations":   snap.Stations,
	})
}

func (s *Server) handleStationSeries(c *gin.Context) {
	triplet := c.Param("triplet")

	var kind domain.SensorKind
	if k := c.Query("kind"); k != "" {
		kind = domain.SensorKind(k)
		if !kind.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
			return
		}
	}

	station, data, err := s.svc.StationSeries(c.Request.Context(), triplet)
	if err != nil {
		switch {
		case errors.Is(err, discovery.ErrNoSession), errors.Is(err, discovery.ErrUnknownStation):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "station data unavailable"})
		}
		return
	}

	series := data.Series
	outcomes := data.Outcomes
	if kind != "" {
		series = map[domain.SensorKind]domain.SensorSeries{kind: data.Series[kind]}
		outcomes = map[domain.SensorKind]domain.FetchOutcome{kind: data.Outcomes[kind]}
	}

	c.JSON(http.StatusOK, gin.H{
		"station":  station,
		"series":   series,
		"outcomes": outcomes,
	})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
