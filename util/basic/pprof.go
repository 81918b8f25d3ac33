package basic

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// StartPProfServe 在后台启用 pprof 分析服务, ctx 结束时关闭.
// 地址: http://ip:port/api/v1/pprof/.
func StartPProfServe(ctx context.Context, port int, logger *zap.SugaredLogger) (*http.Server, error) {
	if port <= 0 || port > 65535 {
		return nil, errors.Errorf("invalid pprof port %v", port)
	}
	gin.DisableConsoleColor()
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard

	r := gin.New()
	r.Use(gin.Recovery())
	apiv1 := r.Group("/api/v1")
	pprof.RouteRegister(apiv1, "pprof")

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("StartPProfServe ListenAndServe ERR=%v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	logger.Debugf("pprof serving at %s/api/v1/pprof/", srv.Addr)
	return srv, nil
}
