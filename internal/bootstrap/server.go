package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/restobooking/api"
	"github.com/Domenick1991/restobooking/config"
	"github.com/Domenick1991/restobooking/internal/obs"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Run starts the HTTP server and blocks until context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, guest *api.GuestHandler, webhooks *api.WebhookHandler) error {
	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: newRouter(cfg, guest, webhooks),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, guest *api.GuestHandler, webhooks *api.WebhookHandler) *gin.Engine {
	router := gin.Default()

	// Guest links are opened straight from mail clients and restaurant
	// widgets on arbitrary origins.
	router.Use(cors.Default())

	guest.Register(router.Group("/guest/bookings"))
	webhooks.Register(router.Group("/webhooks"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(obs.MetricsHandler()))

	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger", cfg.HTTP.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/restobooking.swagger.json"),
		)))
	}

	return router
}
