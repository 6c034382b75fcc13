package kafka

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/liormulay/order-processing-system/internal/metrics"
)

// Producer публикует события конвейера в режиме fire-and-forget: Publish только
// ставит сообщение в очередь отправки, а результат доставки наблюдается
// асинхронно из каналов Successes/Errors. Вызывающая сторона не блокируется
// и не выполняет синхронных повторов — это явный контракт конвейера.
type Producer struct {
	producer sarama.AsyncProducer
	logger   *log.Entry
	metrics  *metrics.PipelineMetrics
	wg       sync.WaitGroup
}

// NewProducer создает новый асинхронный Kafka producer.
func NewProducer(brokers []string, m *metrics.PipelineMetrics) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll // Wait for all in-sync replicas
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true // Включаем идемпотентность
	config.Net.MaxOpenRequests = 1    // Для идемпотентности

	asyncProducer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	p := &Producer{
		producer: asyncProducer,
		logger:   log.WithField("component", "kafka-producer"),
		metrics:  m,
	}
	p.drainOutcomes()

	return p, nil
}

// Publish сериализует событие и ставит его в очередь отправки с ключом key.
// Возвращаемая ошибка касается только сериализации: сбой доставки будет
// залогирован асинхронно и не откатывает уже выполненные записи в хранилище.
func (p *Producer) Publish(topic, key string, event any) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(eventData),
		Timestamp: time.Now(),
	}

	p.logger.WithFields(log.Fields{
		"topic": topic,
		"key":   key,
	}).Debug("message enqueued")

	return nil
}

// drainOutcomes запускает горутины, наблюдающие исходы доставки.
func (p *Producer) drainOutcomes() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for msg := range p.producer.Successes() {
			p.logger.WithFields(log.Fields{
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).Debug("message sent to kafka")
		}
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for err := range p.producer.Errors() {
			p.metrics.PublishFailed()
			p.logger.WithError(err.Err).WithField("topic", err.Msg.Topic).
				Error("failed to send message to kafka")
		}
	}()
}

// Close останавливает producer, дожидаясь обработки уже поставленных сообщений.
func (p *Producer) Close() error {
	p.producer.AsyncClose()
	p.wg.Wait()
	return nil
}
