package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"resume-parser-go/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageQueue 消息队列接口
type MessageQueue interface {
	// PublishJSON 以持久化消息发布 JSON
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data any) error

	// Close 关闭连接
	Close() error
}

var _ MessageQueue = (*RabbitMQ)(nil)

// DeliveryHandler 处理一条消息。返回 true 时确认消息，返回 false 时拒绝并重新入队。
type DeliveryHandler func(ctx context.Context, body []byte) bool

// RabbitMQ 解析请求和结果的消息通道
type RabbitMQ struct {
	conn   *amqp.Connection
	cfg    *config.RabbitMQConfig
	logger *log.Logger

	mu       sync.Mutex
	pubCh    *amqp.Channel
	declared map[string]bool // exchange / queue / binding 的本地声明缓存
}

// NewRabbitMQ 建立连接并打开发布通道
func NewRabbitMQ(cfg *config.RabbitMQConfig, logger *log.Logger) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("无法创建RabbitMQ通道: %w", err)
	}

	logger.Printf("成功连接到RabbitMQ服务器")
	return &RabbitMQ{
		conn:     conn,
		cfg:      cfg,
		logger:   logger,
		pubCh:    ch,
		declared: make(map[string]bool),
	}, nil
}

// Close 关闭通道和连接
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pubCh != nil {
		r.pubCh.Close()
		r.pubCh = nil
	}
	return r.conn.Close()
}

// SetupParseTopology 声明解析交换机、请求队列和结果队列并完成绑定
func (r *RabbitMQ) SetupParseTopology() error {
	c := r.cfg
	if err := r.EnsureExchange(c.ParseExchange, amqp.ExchangeDirect); err != nil {
		return err
	}
	bindings := []struct{ queue, key string }{
		{c.RequestQueue, c.RequestRoutingKey},
		{c.ResultQueue, c.ResultRoutingKey},
	}
	for _, b := range bindings {
		if err := r.EnsureQueue(b.queue); err != nil {
			return err
		}
		if err := r.BindQueue(b.queue, c.ParseExchange, b.key); err != nil {
			return err
		}
	}
	return nil
}

// EnsureExchange 声明持久化交换机
func (r *RabbitMQ) EnsureExchange(name, kind string) error {
	if name == "" {
		return fmt.Errorf("exchange名称不能为空")
	}
	return r.declareOnce("exchange:"+name, func(ch *amqp.Channel) error {
		return ch.ExchangeDeclare(name, kind, true, false, false, false, nil)
	})
}

// EnsureQueue 声明持久化队列
func (r *RabbitMQ) EnsureQueue(name string) error {
	if name == "" {
		return fmt.Errorf("队列名称不能为空")
	}
	return r.declareOnce("queue:"+name, func(ch *amqp.Channel) error {
		_, err := ch.QueueDeclare(name, true, false, false, false, nil)
		return err
	})
}

// BindQueue 绑定队列到交换机
func (r *RabbitMQ) BindQueue(queue, exchange, routingKey string) error {
	return r.declareOnce(fmt.Sprintf("binding:%s:%s:%s", exchange, queue, routingKey), func(ch *amqp.Channel) error {
		return ch.QueueBind(queue, routingKey, exchange, false, nil)
	})
}

func (r *RabbitMQ) declareOnce(key string, declare func(ch *amqp.Channel) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.declared[key] {
		return nil
	}
	if r.pubCh == nil {
		return fmt.Errorf("RabbitMQ通道已关闭")
	}
	if err := declare(r.pubCh); err != nil {
		return fmt.Errorf("声明 %s 失败: %w", key, err)
	}
	r.declared[key] = true
	r.logger.Printf("已声明 %s", key)
	return nil
}

// PublishJSON 序列化并发布持久化消息
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pubCh == nil {
		return fmt.Errorf("RabbitMQ通道已关闭")
	}
	return r.pubCh.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now(),
	})
}

// StartConsumer 在独立通道上消费队列，由 workers 个协程并发处理。
// ctx 取消后所有协程退出，返回的 channel 随之关闭。
func (r *RabbitMQ) StartConsumer(ctx context.Context, queueName string, prefetchCount, workers int, handler DeliveryHandler) (<-chan struct{}, error) {
	if workers <= 0 {
		workers = 1
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("无法创建消费通道: %w", err)
	}
	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("设置QoS失败: %w", err)
	}
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("注册消费者失败: %w", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					if handler(ctx, d.Body) {
						if err := d.Ack(false); err != nil {
							r.logger.Printf("确认消息失败: %v", err)
						}
					} else if err := d.Nack(false, true); err != nil {
						r.logger.Printf("拒绝消息失败: %v", err)
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		ch.Close()
		r.logger.Printf("RabbitMQ消费者已停止: %s", queueName)
		close(done)
	}()

	r.logger.Printf("RabbitMQ消费者已启动，队列: %s, 预取数量: %d, 并发: %d", queueName, prefetchCount, workers)
	return done, nil
}
