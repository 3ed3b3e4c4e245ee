// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"shitu-go/internal/config"
	"shitu-go/internal/handler"
	"shitu-go/internal/middleware"
	"shitu-go/internal/pipeline"
	"shitu-go/internal/repository"
	"shitu-go/internal/service"
	"shitu-go/pkg/coze"
	"shitu-go/pkg/database"
	"shitu-go/pkg/es"
	"shitu-go/pkg/kafka"
	"shitu-go/pkg/log"
	"shitu-go/pkg/storage"
	"shitu-go/pkg/token"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、对象存储与检索
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis)
	storage.InitMinIO(cfg.MinIO)
	var searchIndex *es.QuestionIndex
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		// 错题本检索不是批改与建议的前置条件，ES 不可用时降级运行
		log.Errorf("es 初始化失败, 错题本检索已禁用: %v", err)
	} else {
		searchIndex = es.NewQuestionIndex(es.ESClient, cfg.Elasticsearch.IndexName)
	}
	kafka.InitProducer(cfg.Kafka)
	defer kafka.CloseProducer()

	// 4. 初始化 Repository
	transactor := repository.NewTransactor(database.DB)
	statRepo := repository.NewKnowledgeStatRepository(database.DB)
	questionRepo := repository.NewQuestionRepository(database.DB)
	paperRepo := repository.NewPaperRepository(database.DB)
	practiceRepo := repository.NewPracticeQuestionRepository(database.DB)
	adviceCacheRepo := repository.NewAdviceCacheRepository(database.DB, database.RDB, cfg.Advice.HotCacheTTL())

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	cozeClient := coze.NewClient(cfg.Coze)
	bucket := storage.NewBucketStore(storage.MinioClient, cfg.MinIO.BucketName)

	knowledgeService := service.NewKnowledgeService(statRepo)
	adviceService := service.NewAdviceService(statRepo, questionRepo, adviceCacheRepo, cozeClient, cfg.Advice)
	paperService := service.NewPaperService(paperRepo, questionRepo, bucket, kafka.GradingProducer{})
	var searcher service.QuestionSearcher
	if searchIndex != nil {
		searcher = searchIndex
	}
	questionService := service.NewQuestionService(questionRepo, searcher)
	practiceService := service.NewPracticeService(cozeClient, practiceRepo, questionRepo, statRepo, transactor)

	// 6. 初始化试卷批改管道 (Processor)
	var indexer pipeline.QuestionIndexer
	if searchIndex != nil {
		indexer = searchIndex
	}
	processor := pipeline.NewProcessor(cozeClient, bucket, indexer, paperRepo, questionRepo, statRepo, transactor)

	// 7. 启动后台 Kafka 消费者，停机时通过 ctx 结束
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		kafka.StartConsumer(consumerCtx, cfg.Kafka, database.RDB, processor)
	}()

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由，全部需要认证
	apiV1 := r.Group("/api/v1")
	apiV1.Use(middleware.AuthMiddleware(jwtManager))
	{
		paperHandler := handler.NewPaperHandler(paperService)
		papers := apiV1.Group("/papers")
		{
			papers.POST("", paperHandler.Upload)
			papers.GET("/:paperId", paperHandler.Get)
		}

		knowledgeHandler := handler.NewKnowledgeHandler(knowledgeService)
		knowledge := apiV1.Group("/knowledge")
		{
			knowledge.POST("/batches", knowledgeHandler.SubmitBatch)
			knowledge.GET("/report", knowledgeHandler.Report)
		}

		questionHandler := handler.NewQuestionHandler(questionService)
		questions := apiV1.Group("/questions")
		{
			questions.GET("", questionHandler.List)
			questions.GET("/search", questionHandler.Search)
		}

		practiceHandler := handler.NewPracticeHandler(practiceService)
		practice := apiV1.Group("/practice")
		{
			practice.POST("/generate", practiceHandler.Generate)
			practice.POST("/submit", practiceHandler.Submit)
			practice.GET("/history", practiceHandler.History)
			practice.GET("/papers/:paperId", practiceHandler.Paper)
		}

		apiV1.POST("/advice", handler.NewAdviceHandler(adviceService).GetAdvice)
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	stopConsumer()
	select {
	case <-consumerDone:
	case <-ctx.Done():
		log.Warnf("等待 Kafka 消费者退出超时")
	}
	log.Info("服务已优雅关闭")
}
