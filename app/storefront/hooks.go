package storefront

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-cardgateway/app/factory"
)

const (
	EventReduceStock     = "stock.reduce"
	EventEmptyCart       = "cart.empty"
	EventPaymentComplete = "payment.complete"
)

// Hooks are the storefront side effects fired once a payment settles.
type Hooks interface {
	ReduceStock(ctx context.Context, orderID uint64) error
	EmptyCart(ctx context.Context, orderID uint64) error
	PaymentComplete(ctx context.Context, orderID uint64) error
}

type Event struct {
	Type       string    `json:"type"`
	OrderID    uint64    `json:"order_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// KafkaHooks hands the storefront side effects to the shop over a Kafka topic.
type KafkaHooks struct {
	producer sarama.SyncProducer
	topic    string
	now      func() time.Time
	logger   logrus.FieldLogger
}

func NewKafkaHooks(producer sarama.SyncProducer, topic string) *KafkaHooks {
	return &KafkaHooks{
		producer: producer,
		topic:    topic,
		now:      time.Now,
		logger:   factory.NewModuleLogger("storefront-hooks"),
	}
}

func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	return sarama.NewSyncProducer(brokers, cfg)
}

func (h *KafkaHooks) ReduceStock(_ context.Context, orderID uint64) error {
	return h.publish(EventReduceStock, orderID)
}

func (h *KafkaHooks) EmptyCart(_ context.Context, orderID uint64) error {
	return h.publish(EventEmptyCart, orderID)
}

func (h *KafkaHooks) PaymentComplete(_ context.Context, orderID uint64) error {
	return h.publish(EventPaymentComplete, orderID)
}

func (h *KafkaHooks) Close() error {
	return h.producer.Close()
}

func (h *KafkaHooks) publish(eventType string, orderID uint64) error {
	b, err := json.Marshal(Event{Type: eventType, OrderID: orderID, OccurredAt: h.now().UTC()})
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: h.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(orderID, 10)),
		Value: sarama.ByteEncoder(b),
	}
	partition, offset, err := h.producer.SendMessage(msg)
	if err != nil {
		h.logger.WithError(err).WithField("event", eventType).WithField("order_id", orderID).Error("storefront event publish failed")
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"event":     eventType,
		"order_id":  orderID,
		"partition": partition,
		"offset":    offset,
	}).Debug("storefront event published")
	return nil
}

// LogHooks only logs the side effects. It is used when no Kafka brokers are configured.
type LogHooks struct {
	logger logrus.FieldLogger
}

func NewLogHooks() *LogHooks {
	return &LogHooks{logger: factory.NewModuleLogger("storefront-hooks")}
}

func (h *LogHooks) ReduceStock(_ context.Context, orderID uint64) error {
	h.logger.WithField("order_id", orderID).Info(EventReduceStock)
	return nil
}

func (h *LogHooks) EmptyCart(_ context.Context, orderID uint64) error {
	h.logger.WithField("order_id", orderID).Info(EventEmptyCart)
	return nil
}

func (h *LogHooks) PaymentComplete(_ context.Context, orderID uint64) error {
	h.logger.WithField("order_id", orderID).Info(EventPaymentComplete)
	return nil
}
