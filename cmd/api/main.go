package main

import (
	"fmt"
	"log"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/paybridge/wechat-bridge/internal/adapter/primary/http"
	"github.com/paybridge/wechat-bridge/internal/adapter/secondary/database"
	"github.com/paybridge/wechat-bridge/internal/adapter/secondary/gateway"
	"github.com/paybridge/wechat-bridge/internal/adapter/secondary/memory"
	"github.com/paybridge/wechat-bridge/internal/adapter/secondary/messaging"
	"github.com/paybridge/wechat-bridge/internal/constant/model/db"
	"github.com/paybridge/wechat-bridge/internal/core/service"
	"github.com/paybridge/wechat-bridge/internal/core/session"
	"github.com/paybridge/wechat-bridge/internal/port/output"
	"github.com/paybridge/wechat-bridge/pkg/metrics"
)

func main() {
	// Get configuration from environment variables
	port := getEnv("PORT", "8080")
	dbConnStr := getEnv("DATABASE_URL", "")
	amqpURL := getEnv("RABBITMQ_URL", "")
	appID := getEnv("WXPAY_APP_ID", "")
	merchantID := getEnv("WXPAY_MCH_ID", "")
	apiKey := getEnv("WXPAY_API_KEY", "")
	gatewayURL := getEnv("WXPAY_GATEWAY_URL", "https://api.mch.weixin.qq.com/pay/unifiedorder")
	notifyURL := getEnv("NOTIFY_URL", "")

	if appID == "" || merchantID == "" || apiKey == "" {
		log.Fatal("WXPAY_APP_ID, WXPAY_MCH_ID and WXPAY_API_KEY must be set")
	}

	// Initialize secondary adapter: order state repository. Without a
	// DATABASE_URL the state lives in process memory only.
	var orderRepo output.OrderRepository
	if dbConnStr != "" {
		dbConn, err := db.NewDB(dbConnStr)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer dbConn.Close()
		orderRepo = database.NewGormOrderRepository(dbConn.DB)
	} else {
		log.Println("DATABASE_URL not set; using in-memory order repository")
		orderRepo = memory.NewOrderRepository()
	}

	// Session registry: the single shared mutable resource of the core
	registry := session.NewRegistry()
	reconcilerMetrics := metrics.NewReconcilerMetrics(nil)

	// Outcome notifier fan-out: registry push, plus an event publish
	// when a broker is configured
	notifier := service.MultiNotifier{service.NewPushNotifier(registry, reconcilerMetrics)}
	if amqpURL != "" {
		msgClient, err := messaging.NewRabbitMQClientConcrete(amqpURL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer msgClient.Close()
		notifier = append(notifier, msgClient)
	}

	// Initialize secondary adapters: gateway client and notification codec
	gatewayClient := gateway.NewWechatClient(gateway.Config{
		AppID:      appID,
		MerchantID: merchantID,
		APIKey:     apiKey,
		GatewayURL: gatewayURL,
	})
	codec := gateway.NewNotificationCodec(apiKey)

	// Initialize core services (implement input ports)
	orderService := service.NewOrderService(orderRepo, gatewayClient, registry, notifyURL)
	reconciler := service.NewReconciler(codec, orderRepo, notifier, reconcilerMetrics)

	// Initialize primary adapter: HTTP handler (uses input port)
	orderHandler := http.NewOrderHandler(orderService, reconciler, registry)

	// Initialize Echo
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Routes
	api := e.Group("/api/v1")
	api.POST("/orders", orderHandler.CreateOrder)
	api.GET("/orders/:id", orderHandler.GetOrder)
	api.GET("/orders/:id/events", orderHandler.StreamOutcome)

	// Gateway-facing notification endpoint
	e.POST("/wechatpay/callback", orderHandler.Callback)

	// Health check and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Start server
	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
