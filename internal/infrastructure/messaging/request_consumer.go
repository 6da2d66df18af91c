package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/jhoicas/supply-ledger/internal/application/dto"
	"github.com/jhoicas/supply-ledger/internal/application/inventory"
	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
)

// Tipo del mensaje con el resultado del despacho.
const EventRequestResult = "supply.request.result"

// Fulfiller despacha una solicitud aprobada. Committed devuelve el despacho ya registrado
// para la misma solicitud (nil si no existe) y permite responder a una reentrega.
type Fulfiller interface {
	Fulfill(ctx context.Context, req entity.ApprovedRequest) (*inventory.TransactionResult, error)
	Committed(ctx context.Context, req entity.ApprovedRequest) (*inventory.TransactionResult, error)
}

// RequestConsumer consume solicitudes aprobadas, las despacha y publica el resultado.
type RequestConsumer struct {
	broker    *Broker
	fulfiller Fulfiller
	prefetch  int
	log       zerolog.Logger
}

// NewRequestConsumer construye el consumidor.
func NewRequestConsumer(broker *Broker, fulfiller Fulfiller, log zerolog.Logger) *RequestConsumer {
	return &RequestConsumer{
		broker:    broker,
		fulfiller: fulfiller,
		prefetch:  1,
		log:       log.With().Str("component", "request_consumer").Logger(),
	}
}

// Start abre un canal propio y procesa mensajes hasta que ctx termine o el canal se cierre.
func (rc *RequestConsumer) Start(ctx context.Context) error {
	ch, err := rc.broker.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.Qos(rc.prefetch, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("qos: %w", err)
	}
	queue := rc.broker.cfg.QRequestsApproved
	deliveries, err := ch.Consume(queue, "supply-ledger", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					rc.log.Warn().Str("queue", queue).Msg("canal de entregas cerrado")
					return
				}
				rc.process(ctx, d)
			}
		}
	}()
	rc.log.Info().Str("queue", queue).Msg("consumidor de solicitudes iniciado")
	return nil
}

func (rc *RequestConsumer) process(ctx context.Context, d amqp.Delivery) {
	result, requeue := HandleRequest(ctx, rc.fulfiller, d.Body)
	logEvt := rc.log.Info()
	if result.State == dto.RequestStateFailed {
		logEvt = rc.log.Error()
	}
	logEvt.
		Str("request_number", result.RequestNumber).
		Str("state", result.State).
		Str("reason", result.Reason).
		Int("line", result.Line).
		Msg("solicitud procesada")

	if requeue {
		_ = d.Nack(false, true)
		return
	}
	if result.RequestNumber != "" {
		if err := rc.broker.PublishJSON(ctx, rc.broker.cfg.QRequestsResult, EventRequestResult, result); err != nil {
			rc.log.Error().Err(err).Str("request_number", result.RequestNumber).Msg("no se pudo publicar el resultado")
			_ = d.Nack(false, true)
			return
		}
	}
	_ = d.Ack(false)
}

// HandleRequest decodifica y despacha un mensaje de solicitud aprobada.
// requeue indica un fallo transitorio (bloqueos ocupados) que conviene reintentar.
// Un mensaje ilegible se descarta con estado rejected. Una solicitud ya despachada con las
// mismas líneas se informa de nuevo como fulfilled con sus movimientos originales.
func HandleRequest(ctx context.Context, f Fulfiller, body []byte) (result dto.RequestResultDTO, requeue bool) {
	var msg dto.ApprovedRequestDTO
	if err := json.Unmarshal(body, &msg); err != nil {
		return dto.RequestResultDTO{State: dto.RequestStateRejected, Reason: "mensaje inválido: " + err.Error()}, false
	}
	result.RequestNumber = msg.RequestNumber

	req := inventory.ApprovedRequestFromDTO(msg)
	res, err := f.Fulfill(ctx, req)
	if errors.Is(err, domain.ErrDuplicateReference) {
		prev, cerr := f.Committed(ctx, req)
		switch {
		case cerr != nil:
			err = cerr
		case prev != nil:
			res, err = prev, nil
		}
	}
	switch {
	case err == nil:
		result.State = dto.RequestStateFulfilled
		result.MovementIDs = res.MovementIDs()
	case errors.Is(err, domain.ErrLockTimeout):
		return result, true
	case domain.IsClientError(err):
		result.State = dto.RequestStateRejected
		result.Reason = err.Error()
		result.Line = domain.LineOf(err)
	default:
		result.State = dto.RequestStateFailed
		result.Reason = err.Error()
		result.Line = domain.LineOf(err)
	}
	return result, false
}
