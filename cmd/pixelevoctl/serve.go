package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sourcegraph/conc/pool"

	"pixelevo/internal/metrics"
	"pixelevo/internal/model"
	"pixelevo/internal/palette"
	"pixelevo/internal/platform"
	"pixelevo/internal/stats"
)

const maxFrameScale = 8

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	common := addClientFlags(fs)
	reqFlags := addRequestFlags(fs, 0)
	addr := fs.String("addr", ":8080", "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := reqFlags.request()
	if err != nil {
		return err
	}
	logger, err := common.logger(os.Stderr)
	if err != nil {
		return err
	}
	collector := metrics.New()
	client, err := common.client(logger, collector)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	session, err := client.NewSession(ctx, req)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{Addr: *addr, Handler: newRouter(session.Driver(), collector, logger)}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		summary, err := session.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("run stopped run_id=%s generations=%d final_mean=%.3f artifacts=%s\n",
			summary.RunID, summary.Generations, summary.Summary.FinalMean, summary.ArtifactsDir)
		return nil
	})
	p.Go(func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			logger.Info("http listening", "addr", *addr, "run_id", session.RunID())
			errCh <- srv.ListenAndServe()
		}()
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}
		shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	return p.Wait()
}

type targetResponse struct {
	Hex  string `json:"hex"`
	Name string `json:"name,omitempty"`
	R    int    `json:"r"`
	G    int    `json:"g"`
	B    int    `json:"b"`
}

func newTargetResponse(c model.RGB) targetResponse {
	return targetResponse{Hex: c.Hex(), Name: palette.NameOf(c), R: c.R, G: c.G, B: c.B}
}

// newRouter exposes one running driver over HTTP. POST /target is the
// "change color" request; PUT /target sets an explicit color.
func newRouter(d *platform.Driver, collector *metrics.Collector, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"run_id":     d.RunID(),
			"generation": d.Population().Generation(),
		})
	})

	r.GET("/target", func(c *gin.Context) {
		c.JSON(http.StatusOK, newTargetResponse(d.PeekTarget()))
	})
	r.POST("/target", func(c *gin.Context) {
		next := d.RequestTarget()
		c.JSON(http.StatusOK, newTargetResponse(next))
	})
	r.PUT("/target", func(c *gin.Context) {
		var body struct {
			Color string `json:"color" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		next, err := palette.Resolve(body.Color)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d.SetTarget(next)
		c.JSON(http.StatusOK, newTargetResponse(d.PeekTarget()))
	})

	r.GET("/frame.png", func(c *gin.Context) {
		scale, err := queryInt(c, "scale", 1)
		if err != nil || scale < 1 || scale > maxFrameScale {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("scale must be an integer in [1,%d]", maxFrameScale)})
			return
		}
		c.Header("Content-Type", "image/png")
		c.Header("Cache-Control", "no-store")
		c.Status(http.StatusOK)
		if err := png.Encode(c.Writer, stats.ScaleFrame(d.Render(), scale)); err != nil {
			logger.Warn("encode frame", "error", err)
		}
	})

	r.GET("/diagnostics", func(c *gin.Context) {
		limit, err := queryInt(c, "limit", 50)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		history := d.History()
		if limit > 0 && len(history) > limit {
			history = history[len(history)-limit:]
		}
		c.JSON(http.StatusOK, history)
	})

	r.GET("/metrics", gin.WrapH(collector.Handler()))
	return r
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
