package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rustyeddy/paperbroker/ledger"
)

// messageWriter is the slice of *kafka.Writer the feed uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes transactions to a topic, keyed by account so a consumer
// sees each account's trades in order. Writes are asynchronous; delivery
// failures surface in the log, never to the trading path.
type Kafka struct {
	writer messageWriter
	log    *zap.Logger
}

// NewKafka creates a publisher for the given brokers and topic. A nil logger
// disables logging.
func NewKafka(brokers []string, topic string, logger *zap.Logger) *Kafka {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		Dialer:       dialer,
		BatchTimeout: 200 * time.Millisecond,
		RequiredAcks: int(kafka.RequireOne),
		Async:        true,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			logger.Warn("kafka write failed", zap.String("detail", fmt.Sprintf(msg, args...)))
		}),
	})

	return &Kafka{writer: writer, log: logger}
}

// Publish enqueues one transaction, keyed by account ID.
func (k *Kafka) Publish(ctx context.Context, tx ledger.Transaction) error {
	value, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encode transaction: %w", err)
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(tx.AccountID),
		Value: value,
		Time:  tx.Timestamp,
	})
}

// Close flushes buffered messages and releases the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

// EnsureTopic creates the topic on the cluster controller when it does not
// already exist.
func EnsureTopic(broker, topic string, partitions int) error {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}

	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("create topic: %w", err)
	}

	return nil
}
