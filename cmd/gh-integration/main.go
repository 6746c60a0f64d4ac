package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gh-integration/internal/api/router"
	"gh-integration/internal/core"
	"gh-integration/internal/pkg/config"
	"gh-integration/internal/pkg/crypto"
	"gh-integration/internal/pkg/database"
	"gh-integration/internal/pkg/logger"
	"gh-integration/internal/scheduler"

	_ "gh-integration/docs" // Swagger docs
)

// @title GitHub Integration API
// @version 1.0
// @description GitHub 凭据管理与仓库同步服务 API 文档

// @BasePath /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

var (
	configFile = flag.String("config", "", "配置文件路径 (例如: -config=configs/config.yaml)")
	version    = flag.Bool("version", false, "显示版本信息")
	dumpConfig = flag.Bool("dump-config", false, "输出生效的配置(敏感字段打码)后退出")
	syncOnce   = flag.Bool("sync-once", false, "执行一轮全量仓库同步后退出")
)

const (
	appVersion = "1.0.0"
	appName    = "gh-integration"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("%s version %s\n", appName, appVersion)
		os.Exit(0)
	}

	// 优先级: 命令行参数 > 环境变量 > 默认路径
	configPath := getConfigPath()

	if *dumpConfig {
		out, err := config.Dump(configPath)
		if err != nil {
			fmt.Printf("加载配置失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(string(out))
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		fmt.Println("\n使用方式:")
		fmt.Println("  1. 命令行参数指定: ./gh-integration -config=configs/config.yaml")
		fmt.Println("  2. 环境变量指定: CONFIG_FILE=configs/config.yaml ./gh-integration")
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Close()
	}()
	logger.Info(fmt.Sprintf("Load config file: %s of %s", configPath, getConfigSource()))
	logger.Info(fmt.Sprintf("服务 %s 启动中...", appName), zap.String("version", appVersion))

	// 凭据字段加密存储, 密钥必须在访问数据库前设置
	if err := crypto.SetKey(cfg.Crypto.AESKey); err != nil {
		logger.Fatal("加载加密密钥失败", zap.Error(err))
	}

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer func() {
		_ = database.Close()
	}()
	logger.Info(fmt.Sprintf("数据库连接成功 %s:%v", cfg.Database.Host, cfg.Database.Port),
		zap.String("driver", cfg.Database.Driver),
		zap.String("database", cfg.Database.Database),
	)

	engine := core.NewEngine(database.GetDB(), cfg, logger.Log)

	if err := engine.Users.EnsureAdmin(context.Background(), &cfg.Auth.Local); err != nil {
		logger.Fatal("创建初始管理员失败", zap.Error(err))
	}

	taskScheduler := scheduler.NewScheduler(engine.Sync, logger.Named("scheduler"))

	if *syncOnce {
		if err := taskScheduler.TriggerRepoSync(); err != nil {
			logger.Fatal("代码库同步失败", zap.Error(err))
		}
		return
	}

	if err := taskScheduler.Start(&cfg.Sync); err != nil {
		logger.Warn("定时任务调度器启动失败", zap.Error(err))
	}

	r := router.Setup(cfg, engine)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(fmt.Sprintf("%s 服务启动成功", cfg.Server.Name),
			zap.String("address", addr),
			zap.String("mode", cfg.Server.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务正在关闭...")

	taskScheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务已关闭")
}

// getConfigPath 获取配置文件路径
// 优先级: 命令行参数 > 环境变量 > 默认路径
func getConfigPath() string {
	if *configFile != "" {
		return *configFile
	}
	if envConfig := os.Getenv("CONFIG_FILE"); envConfig != "" {
		return envConfig
	}
	return "configs/config.yaml"
}

// getConfigSource 获取配置来源说明
func getConfigSource() string {
	if *configFile != "" {
		return "命令行参数"
	}
	if os.Getenv("CONFIG_FILE") != "" {
		return "环境变量"
	}
	return "默认配置"
}
