package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"sensor_dashboard/internal/logger"
	"sensor_dashboard/internal/models"
)

const (
	noticeQoS        = 1
	publishTimeout   = 5 * time.Second
	publishQueueSize = 64
	disconnectWait   = 250 // ms
)

// Publisher is the part of mqtt.Client the notifier needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTOptions configure the broker connection.
type MQTTOptions struct {
	Broker     string // e.g. tcp://localhost:1883
	ClientID   string
	MaxRetries uint64
	MaxElapsed time.Duration
}

// ConnectMQTT connects to the broker, retrying with exponential backoff. The client is
// disconnected when ctx is done.
func ConnectMQTT(ctx context.Context, o MQTTOptions, log *logger.Logger) (mqtt.Client, error) {
	log = logger.OrNop(log).Named("mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "broker", o.Broker, "error", err)
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = o.MaxElapsed
	if bo.MaxElapsedTime == 0 {
		bo.MaxElapsedTime = 10 * time.Second
	}
	retries := o.MaxRetries
	if retries == 0 {
		retries = 4
	}

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Warnw("mqtt_connect_failed", "broker", o.Broker, "error", token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx))
	if err != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", o.Broker, err)
	}
	log.Infow("mqtt_connected", "broker", o.Broker)

	go func() {
		<-ctx.Done()
		client.Disconnect(disconnectWait)
		log.Infow("mqtt_disconnected", "broker", o.Broker)
	}()
	return client, nil
}

// MQTTNotifier publishes notices as JSON to a topic with QoS 1. Publishing happens on
// its own goroutine; Notify only enqueues, and drops the notice when the queue is full.
type MQTTNotifier struct {
	pub     Publisher
	topic   string
	timeout time.Duration
	log     *logger.Logger

	queue chan models.Notice
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewMQTTNotifier(pub Publisher, topic string, log *logger.Logger) *MQTTNotifier {
	m := &MQTTNotifier{
		pub:     pub,
		topic:   topic,
		timeout: publishTimeout,
		log:     logger.OrNop(log).Named("mqtt"),
		queue:   make(chan models.Notice, publishQueueSize),
		done:    make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *MQTTNotifier) Notify(_ context.Context, n models.Notice) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.queue <- n:
	default:
		m.log.Warnw("mqtt_notice_dropped", "id", n.ID, "topic", m.topic)
	}
}

// Close stops accepting notices and waits until the queued ones are published.
func (m *MQTTNotifier) Close() {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.mu.Unlock()
	<-m.done
}

func (m *MQTTNotifier) run() {
	defer close(m.done)
	for n := range m.queue {
		m.publish(n)
	}
}

func (m *MQTTNotifier) publish(n models.Notice) {
	b, err := json.Marshal(n)
	if err != nil {
		m.log.Errorw("mqtt_encode_failed", "id", n.ID, "error", err)
		return
	}
	token := m.pub.Publish(m.topic, noticeQoS, false, b)
	if !token.WaitTimeout(m.timeout) {
		m.log.Warnw("mqtt_publish_timeout", "id", n.ID, "topic", m.topic)
		return
	}
	if err := token.Error(); err != nil {
		m.log.Warnw("mqtt_publish_failed", "id", n.ID, "topic", m.topic, "error", err)
	}
}
