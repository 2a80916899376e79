package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/azizikri/project-eligibility/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Gateway submits mutations over Kafka and waits for the service's reply on
// this instance's reply topic.
type Gateway struct {
	producer    Producer
	replyTo     string
	timeout     time.Duration
	log         logrus.FieldLogger
	pendingResp sync.Map
}

func NewGateway(producer Producer, instanceID string, log logrus.FieldLogger) *Gateway {
	return &Gateway{
		producer: producer,
		replyTo:  ReplyTopic(instanceID),
		timeout:  RequestTimeout,
		log:      log,
	}
}

// Commit sends one named mutation for the user and returns the eligibility
// the service computed after applying it.
func (g *Gateway) Commit(ctx context.Context, userID uuid.UUID, name string, payload json.RawMessage) (domain.Eligibility, error) {
	req := MutationRequest{
		SchemaVersion: SchemaVersion,
		CorrelationID: uuid.New().String(),
		ReplyTo:       g.replyTo,
		UserID:        userID.String(),
		Name:          name,
		Payload:       payload,
	}

	resp, err := g.requestReply(ctx, []byte(req.UserID), req)
	if err != nil {
		return domain.Eligibility{}, err
	}
	if resp.Status == StatusError {
		return domain.Eligibility{}, g.mapError(resp.ErrorCode, resp.ErrorMessage)
	}
	if resp.Eligibility == nil {
		return domain.Eligibility{}, errors.New("response without eligibility")
	}
	return *resp.Eligibility, nil
}

func (g *Gateway) requestReply(ctx context.Context, key []byte, req MutationRequest) (*MutationResponse, error) {
	respChan := make(chan *MutationResponse, 1)
	g.pendingResp.Store(req.CorrelationID, respChan)
	defer g.pendingResp.Delete(req.CorrelationID)

	payload, _ := json.Marshal(req)
	record := &kgo.Record{
		Topic: TopicMutationRequest,
		Key:   key,
		Value: payload,
	}

	if err := g.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return nil, fmt.Errorf("produce mutation request: %w", err)
	}

	select {
	case resp := <-respChan:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(g.timeout):
		return nil, errors.New("timeout waiting for response")
	}
}

// HandleResponse routes a record from the reply topic to the waiting Commit.
func (g *Gateway) HandleResponse(payload []byte) {
	var resp MutationResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		g.log.WithError(err).Warn("failed to decode response payload")
		return
	}

	if ch, ok := g.pendingResp.Load(resp.CorrelationID); ok {
		select {
		case ch.(chan *MutationResponse) <- &resp:
		default:
		}
		return
	}

	g.log.WithField("correlation_id", resp.CorrelationID).Debug("no pending response")
}

func (g *Gateway) mapError(code, message string) error {
	switch code {
	case ErrCodeUnknownMutation:
		return fmt.Errorf("%w: %s", domain.ErrUnknownMutation, message)
	case ErrCodeValidation, ErrCodeInvalidRequest:
		return domain.NewValidationError(message)
	case ErrCodeNotFound:
		return fmt.Errorf("%w: %s", domain.ErrProjectNotFound, message)
	default:
		return errors.New(message)
	}
}

// Listen feeds records from the reply topic into HandleResponse until the
// client is closed.
func (g *Gateway) Listen(ctx context.Context, client *kgo.Client) {
	for {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		iter := fetches.RecordIter()
		for !iter.Done() {
			g.HandleResponse(iter.Next().Value)
		}
	}
}
