package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/kilianp07/gridpulse/core/model"
	"github.com/kilianp07/gridpulse/core/region"
	"github.com/kilianp07/gridpulse/core/session"
	"github.com/kilianp07/gridpulse/infra/logger"
)

// Handler serves the dashboard API. Reads return snapshots from the session
// controller; writes start a new optimization cycle.
type Handler struct {
	catalog *region.Catalog
	session *session.Controller
	log     logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(catalog *region.Catalog, ctrl *session.Controller) *Handler {
	return &Handler{catalog: catalog, session: ctrl, log: logger.New("api")}
}

// Router builds the gin engine with CORS for the given origins. Empty
// origins allow any, matching a local dashboard frontend.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	g := r.Group("/api")
	g.GET("/regions", h.listRegions)
	g.GET("/status", h.status)
	g.GET("/profile", h.profile)
	g.GET("/result", h.result)
	g.POST("/regions/:id/select", h.selectRegion)
	g.POST("/retry", h.retry)

	opts := cors.Options{AllowedMethods: []string{http.MethodGet, http.MethodPost}}
	if len(allowedOrigins) > 0 {
		opts.AllowedOrigins = allowedOrigins
	} else {
		opts.AllowedOrigins = []string{"*"}
	}
	return cors.New(opts).Handler(r)
}

func (h *Handler) listRegions(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.List())
}

// statusResponse is the lightweight poll target for the dashboard header.
type statusResponse struct {
	Region           string              `json:"region"`
	Status           model.BackendStatus `json:"status"`
	UsingRealBackend bool                `json:"using_real_backend"`
}

func (h *Handler) status(c *gin.Context) {
	res := h.session.Result()
	c.JSON(http.StatusOK, statusResponse{
		Region:           h.session.RegionID(),
		Status:           h.session.Status(),
		UsingRealBackend: res != nil && res.UsingRealBackend,
	})
}

func (h *Handler) profile(c *gin.Context) {
	p := h.session.Profile()
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed cycle"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) result(c *gin.Context) {
	res := h.session.Result()
	if res == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed cycle"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) selectRegion(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.catalog.Get(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	go h.runCycle(func(ctx context.Context) error {
		_, err := h.session.SelectRegion(ctx, id)
		return err
	})
	c.JSON(http.StatusAccepted, gin.H{"region": id, "status": model.StatusChecking.String()})
}

func (h *Handler) retry(c *gin.Context) {
	if h.session.RegionID() == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "no region selected"})
		return
	}
	go h.runCycle(func(ctx context.Context) error {
		_, err := h.session.Retry(ctx)
		return err
	})
	c.JSON(http.StatusAccepted, gin.H{"status": model.StatusChecking.String()})
}

// runCycle executes a cycle in the background; superseded or failed cycles
// only surface in logs, the dashboard polls /api/status for the outcome.
func (h *Handler) runCycle(run func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := run(ctx); err != nil {
		h.log.Errorf("cycle: %v", err)
	}
}

// Serve runs the API server until the context is canceled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
