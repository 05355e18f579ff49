package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-parser-go/internal/api/handler"
	"resume-parser-go/internal/api/router"
	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	appCoreLogger "resume-parser-go/internal/logger"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

const requestIDHeader = "X-Request-ID"

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}
	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}

	storageManager, err := storage.NewStorage(ctx, cfg, appCoreLogger.NewStdLogger("[Storage] "))
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	glog.Infof("存储服务初始化完成: minio=%t rabbitmq=%t redis=%t",
		storageManager.MinIO != nil, storageManager.RabbitMQ != nil, storageManager.Redis != nil)

	var cache processor.ResultCache
	if storageManager.Redis != nil {
		cache = storageManager.Redis
	}
	resumeParser, err := processor.NewResumeParserFromConfig(ctx, cfg, cache, appCoreLogger.NewStdLogger)
	if err != nil {
		glog.Fatalf("初始化简历解析器失败: %v", err)
	}
	glog.Info("ResumeParser初始化成功")

	resumeHandler := handler.NewResumeHandlerFromStorage(cfg, resumeParser, storageManager)

	var consumerDone <-chan struct{}
	if cfg.Server.EnableWorker {
		if storageManager.RabbitMQ == nil {
			glog.Warn("已启用异步解析消费者，但RabbitMQ不可用，跳过")
		} else if consumerDone, err = resumeHandler.StartParseConsumer(ctx, storageManager.RabbitMQ); err != nil {
			glog.Fatalf("启动异步解析消费者失败: %v", err)
		}
	}

	serverTracer, tracingCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(constants.MaxUploadSize+1<<20),
		serverTracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracingCfg))
	h.Use(requestLogger)

	router.RegisterRoutes(h, resumeHandler, cfg.Server.APIKeys)
	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	timeout := config.GetDuration(cfg.Server.ShutdownTimeout, 10*time.Second)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()

	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}

	cancel()
	if consumerDone != nil {
		select {
		case <-consumerDone:
			glog.Info("异步解析消费者已停止")
		case <-shutdownCtx.Done():
			glog.Warn("等待消费者退出超时")
		}
	}

	storageManager.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Errorf("关闭链路追踪失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func initLogger(cfg *config.Config) {
	appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	if cfg.Logger.Level == "debug" {
		glog.SetLevel(glog.LevelDebug)
	} else {
		glog.SetLevel(glog.LevelInfo)
	}
}

// requestLogger 为每个请求绑定 request_id 并记录耗时
func requestLogger(c context.Context, ctx *app.RequestContext) {
	requestID := string(ctx.GetHeader(requestIDHeader))
	if requestID == "" {
		if id, err := storage.NewRequestID(); err == nil {
			requestID = id
		}
	}
	ctx.Header(requestIDHeader, requestID)
	c = appCoreLogger.WithRequestID(c, requestID)

	start := time.Now()
	ctx.Next(c)
	appCoreLogger.FromContext(c).Info().
		Str("method", string(ctx.Method())).
		Str("path", string(ctx.Path())).
		Int("status", ctx.Response.StatusCode()).
		Dur("latency", time.Since(start)).
		Msg("请求完成")
}
