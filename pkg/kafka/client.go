// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"

	"shitu-go/internal/config"
	"shitu-go/pkg/log"
	"shitu-go/pkg/tasks"
)

// maxAttempts 是单个任务的最大处理次数，超过后提交 offset 并标记失败。
const maxAttempts = 3

// retryBackoff 是重试的基础间隔，第 n 次失败后等待 n 倍。
var retryBackoff = 2 * time.Second

// TaskProcessor 定义了批改任务的处理方。Fail 在任务放弃重试时调用。
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.PaperGradingTask) error
	Fail(ctx context.Context, task tasks.PaperGradingTask, cause error)
}

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// GradingProducer 将批改任务写入 Kafka。
type GradingProducer struct{}

// ProduceGradingTask 发送一个试卷批改任务，以 PaperID 作为消息 key。
func (GradingProducer) ProduceGradingTask(ctx context.Context, task tasks.PaperGradingTask) error {
	if producer == nil {
		return errors.New("kafka 生产者未初始化")
	}
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.PaperID),
		Value: taskBytes,
	})
}

// CloseProducer 关闭生产者，刷新未发送的消息。
func CloseProducer() {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		log.Errorf("关闭 Kafka 生产者失败: %v", err)
	}
}

// StartConsumer 启动 Kafka 消费者处理批改任务，ctx 取消时退出。
// 失败次数记录在 Redis 中，达到上限后提交 offset 并调用 processor.Fail。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, rdb *redis.Client, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	counter := &redisAttemptCounter{rdb: rdb}
	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("从 Kafka 读取消息失败", err)
			}
			break
		}

		log.Infof("收到 Kafka 消息: offset %d", m.Offset)

		var task tasks.PaperGradingTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		handleTask(ctx, r, m, counter, processor, task)
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}

type committer interface {
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// attemptCounter 记录任务的累计失败次数。
type attemptCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string)
}

type redisAttemptCounter struct {
	rdb *redis.Client
}

func (c *redisAttemptCounter) Incr(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = c.rdb.Expire(ctx, key, 24*time.Hour).Err()
	return n, nil
}

func (c *redisAttemptCounter) Reset(ctx context.Context, key string) {
	_ = c.rdb.Del(ctx, key).Err()
}

// handleTask 处理单条任务，失败时按退避间隔在进程内重试。
// 失败次数记录在 Redis 中，进程重启后重新投递的消息会延续之前的计数；
// Redis 不可用时退回本地计数，保证任务最终被标记失败并提交 offset。
func handleTask(ctx context.Context, r committer, m kafka.Message, counter attemptCounter, processor TaskProcessor, task tasks.PaperGradingTask) {
	attemptsKey := fmt.Sprintf("kafka:attempts:%s", task.PaperID)
	var local int64

	for {
		log.Infof("开始处理批改任务: PaperID=%s, UserID=%s", task.PaperID, task.UserID)
		err := processor.Process(ctx, task)
		if err == nil {
			log.Infof("批改任务处理成功: PaperID=%s", task.PaperID)
			counter.Reset(ctx, attemptsKey)
			commit(ctx, r, m)
			return
		}

		log.Errorf("处理批改任务失败: PaperID=%s, Error: %v", task.PaperID, err)
		local++
		attempts := local
		if n, incErr := counter.Incr(ctx, attemptsKey); incErr != nil {
			log.Warnf("记录批改任务失败次数失败，使用本地计数 %d: %v", local, incErr)
		} else if n > attempts {
			attempts = n
		}
		if attempts >= maxAttempts {
			log.Errorf("批改任务多次失败(>=%d)，提交 offset 终止重试: PaperID=%s", maxAttempts, task.PaperID)
			processor.Fail(ctx, task, err)
			commit(ctx, r, m)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempts) * retryBackoff):
		}
	}
}

func commit(ctx context.Context, r committer, m kafka.Message) {
	if err := r.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}
