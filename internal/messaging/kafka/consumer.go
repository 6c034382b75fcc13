package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/liormulay/order-processing-system/internal/metrics"
)

// MessageHandler обрабатывает сообщение из Kafka. Обработчик обязан быть
// реентерабельным и идемпотентным: шина доставляет как минимум один раз.
type MessageHandler func(ctx context.Context, message *sarama.ConsumerMessage) error

const (
	defaultMaxRetries = 3
	retryBackoffBase  = 250 * time.Millisecond
)

// Consumer представляет Kafka consumer group с ограниченными повторами
// и отправкой безнадёжных сообщений в DLQ.
type Consumer struct {
	consumer    sarama.ConsumerGroup
	topics      []string
	handler     MessageHandler
	logger      *log.Entry
	wg          sync.WaitGroup
	dlqProducer *Producer // nil отключает DLQ: сообщение после повторов пропускается
	dlqTopic    string
	maxRetries  int
	metrics     *metrics.PipelineMetrics
}

// NewConsumer создает consumer group без DLQ.
func NewConsumer(brokers []string, groupID string, topics []string, handler MessageHandler) (*Consumer, error) {
	return NewConsumerWithDLQ(brokers, groupID, topics, handler, nil, TopicDeadLetterQueue, defaultMaxRetries, nil)
}

// NewConsumerWithDLQ создает consumer group с поддержкой Dead Letter Queue.
func NewConsumerWithDLQ(brokers []string, groupID string, topics []string, handler MessageHandler,
	dlqProducer *Producer, dlqTopic string, maxRetries int, m *metrics.PipelineMetrics) (*Consumer, error) {

	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	if dlqTopic == "" {
		dlqTopic = TopicDeadLetterQueue
	}

	return &Consumer{
		consumer:    consumer,
		topics:      topics,
		handler:     handler,
		logger:      log.WithFields(log.Fields{"component": "kafka-consumer", "group": groupID}),
		dlqProducer: dlqProducer,
		dlqTopic:    dlqTopic,
		maxRetries:  maxRetries,
		metrics:     m,
	}, nil
}

// Start запускает consumer.
func (c *Consumer) Start(ctx context.Context) error {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			// Consume должен вызываться в цикле, так как при rebalance он завершается
			if err := c.consumer.Consume(ctx, c.topics, c); err != nil {
				c.logger.WithError(err).Error("error from consumer")
			}

			if ctx.Err() != nil {
				return
			}
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for err := range c.consumer.Errors() {
			c.logger.WithError(err).Error("consumer error")
		}
	}()

	c.logger.WithField("topics", c.topics).Info("kafka consumer started")
	return nil
}

// Stop останавливает consumer.
func (c *Consumer) Stop() error {
	if err := c.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	c.wg.Wait()
	c.logger.Info("kafka consumer stopped")
	return nil
}

// Setup вызывается при старте consumer session.
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup вызывается при завершении consumer session.
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim обрабатывает сообщения из partition. Сообщение маркируется
// обработанным всегда: после исчерпания повторов оно либо уходит в DLQ,
// либо осознанно пропускается, но не блокирует партицию.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			c.logger.WithFields(log.Fields{
				"topic":     message.Topic,
				"partition": message.Partition,
				"offset":    message.Offset,
			}).Debug("received message")

			if err := c.handleWithRetry(session.Context(), message); err != nil {
				c.logger.WithError(err).WithFields(log.Fields{
					"topic":     message.Topic,
					"partition": message.Partition,
					"offset":    message.Offset,
				}).Error("message dropped after all retries")
			}

			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// handleWithRetry выполняет обработчик с ограниченным числом повторов и
// линейным backoff, после чего пересылает сообщение в DLQ. Повторы покрывают
// в том числе гонку "событие доставлено раньше, чем стала видна запись
// в хранилище": к следующей попытке запись обычно уже на месте.
func (c *Consumer) handleWithRetry(ctx context.Context, message *sarama.ConsumerMessage) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * retryBackoffBase):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.handler(ctx, message)
		if lastErr == nil {
			return nil
		}

		c.logger.WithError(lastErr).WithFields(log.Fields{
			"topic":       message.Topic,
			"offset":      message.Offset,
			"attempt":     attempt + 1,
			"max_retries": c.maxRetries,
		}).Warn("message processing failed")
	}

	if c.dlqProducer == nil {
		return lastErr
	}

	if dlqErr := c.sendToDLQ(message, lastErr); dlqErr != nil {
		c.logger.WithError(dlqErr).Error("failed to send message to DLQ")
		return fmt.Errorf("failed to send to DLQ: %w", dlqErr)
	}

	c.metrics.MessageDeadLettered()
	c.logger.WithFields(log.Fields{
		"topic":  message.Topic,
		"offset": message.Offset,
	}).Info("message sent to DLQ after max retries")
	return nil
}

// sendToDLQ пересылает безнадёжное сообщение в Dead Letter Queue вместе
// с контекстом исходной доставки.
func (c *Consumer) sendToDLQ(message *sarama.ConsumerMessage, processingErr error) error {
	dlqMessage := map[string]any{
		"original_topic":     message.Topic,
		"original_partition": message.Partition,
		"original_offset":    message.Offset,
		"original_key":       string(message.Key),
		"original_value":     string(message.Value),
		"error_message":      processingErr.Error(),
		"failed_at":          time.Now().UTC().Format(time.RFC3339),
		"attempts":           c.maxRetries + 1,
	}

	return c.dlqProducer.Publish(c.dlqTopic, string(message.Key), dlqMessage)
}
