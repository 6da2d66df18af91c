package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/jhoicas/supply-ledger/internal/application/inventory"
	"github.com/jhoicas/supply-ledger/pkg/config"
)

// Tipo del mensaje publicado al confirmar una transacción del ledger.
const EventTransactionCommitted = "ledger.transaction.committed"

// Broker conexión a RabbitMQ. Publica por un canal propio protegido con mutex;
// cada consumidor abre su propio canal.
type Broker struct {
	cfg  config.RabbitConfig
	conn *amqp.Connection
	ch   *amqp.Channel
	mu   sync.Mutex
	log  zerolog.Logger
}

// Dial abre la conexión y declara las colas durables configuradas.
func Dial(cfg config.RabbitConfig, log zerolog.Logger) (*Broker, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	for _, q := range []string{cfg.QRequestsApproved, cfg.QRequestsResult, cfg.QLedgerEvents} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("declarar cola %s: %w", q, err)
		}
	}
	return &Broker{cfg: cfg, conn: conn, ch: ch, log: log.With().Str("component", "rabbitmq").Logger()}, nil
}

// Close cierra canal y conexión.
func (b *Broker) Close() {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
}

// PublishJSON publica v como JSON persistente en la cola indicada.
func (b *Broker) PublishJSON(ctx context.Context, queue, msgType string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msgType, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         msgType,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// PublishTransactionCommitted implementa inventory.EventPublisher.
func (b *Broker) PublishTransactionCommitted(ctx context.Context, ev inventory.TransactionCommitted) error {
	if err := b.PublishJSON(ctx, b.cfg.QLedgerEvents, EventTransactionCommitted, ev); err != nil {
		return err
	}
	b.log.Debug().Str("transaction_id", ev.TransactionID).Msg("evento del ledger publicado")
	return nil
}
