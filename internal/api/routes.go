package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pranshuparmar/portman/internal/metrics"
	"github.com/pranshuparmar/portman/internal/pipeline"
)

func (s *Server) setupRoutes() {
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	api := s.router.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/system", s.systemInfo)
		api.GET("/statistics", s.statistics)
		api.POST("/scan", s.scan)

		ports := api.Group("/ports")
		{
			ports.GET("", s.listPorts)
			ports.GET("/search", s.searchPorts)
			ports.GET("/:port", s.getPort)
		}

		process := api.Group("/process")
		{
			process.DELETE("/batch", s.batchKill)
			process.GET("/:pid", s.processInfo)
			process.DELETE("/:pid", s.killProcess)
		}
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    "UP",
		"timestamp": time.Now().UnixMilli(),
	})
}

func (s *Server) systemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.svc.SystemInfo()})
}

func (s *Server) statistics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.svc.Statistics()})
}

func (s *Server) scan(c *gin.Context) {
	if !s.scanLimiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "rate_limited", "message": "scan rate limit exceeded"})
		return
	}
	ports := s.svc.ScanAllPorts(c.Request.Context())
	resp := gin.H{
		"success":      true,
		"message":      "Scan completed",
		"count":        len(ports),
		"data":         ports,
		"lastScanTime": s.lastScanMillis(),
	}
	if snap := s.svc.Snapshot(); snap != nil {
		resp["snapshotId"] = snap.ID.String()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listPorts(c *gin.Context) {
	ports := s.svc.GetAllPorts()
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"data":         ports,
		"count":        len(ports),
		"lastScanTime": s.lastScanMillis(),
		"osType":       s.svc.SystemInfo().OSType,
	})
}

func (s *Server) searchPorts(c *gin.Context) {
	q := c.Query("q")
	ports := s.svc.SearchPorts(q)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ports,
		"count":   len(ports),
		"keyword": q,
	})
}

func (s *Server) getPort(c *gin.Context) {
	port, err := strconv.ParseUint(c.Param("port"), 10, 16)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid_port", "message": "invalid port"})
		return
	}
	rec, err := s.svc.GetPort(uint16(port))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rec})
}

func (s *Server) processInfo(c *gin.Context) {
	pid, ok := s.pidParam(c)
	if !ok {
		return
	}
	rec, err := s.svc.ProcessInfo(c.Request.Context(), pid)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rec})
}

func (s *Server) killProcess(c *gin.Context) {
	pid, ok := s.pidParam(c)
	if !ok {
		return
	}
	permanent, _ := strconv.ParseBool(c.DefaultQuery("permanent", "false"))

	res, err := s.svc.KillProcess(c.Request.Context(), pid, permanent)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := gin.H{"success": res.Success, "message": res.Message}
	if res.Success {
		resp["pid"] = pid
		resp["permanent"] = permanent
	}
	c.JSON(http.StatusOK, resp)
}

type batchKillRequest struct {
	PIDs      []int64 `json:"pids"`
	Permanent bool    `json:"permanent"`
}

func (s *Server) batchKill(c *gin.Context) {
	var req batchKillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid_request", "message": err.Error()})
		return
	}
	out, err := s.svc.BatchKill(c.Request.Context(), req.PIDs, req.Permanent)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"results":      out.Results,
		"total":        out.Total,
		"successCount": out.SuccessCount,
		"failCount":    out.FailCount,
		"permanent":    out.Permanent,
	})
}

func (s *Server) pidParam(c *gin.Context) (int64, bool) {
	pid, err := strconv.ParseInt(c.Param("pid"), 10, 64)
	if err != nil || pid <= 0 {
		s.fail(c, pipeline.ErrInvalidPID)
		return 0, false
	}
	return pid, true
}

func (s *Server) lastScanMillis() int64 {
	t := s.svc.LastScanTime()
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
