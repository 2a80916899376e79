package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/azizikri/project-eligibility/internal/domain"
	"github.com/azizikri/project-eligibility/internal/usecase"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the part of *kgo.Client used to publish records.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Consumer applies mutation requests from Kafka to the account service.
type Consumer struct {
	client   *kgo.Client
	producer Producer
	accounts usecase.Accounts
	log      logrus.FieldLogger
	ready    chan struct{}
}

func NewConsumer(client *kgo.Client, accounts usecase.Accounts, log logrus.FieldLogger) *Consumer {
	return &Consumer{
		client:   client,
		producer: client,
		accounts: accounts,
		log:      log.WithField("component", "kafka-consumer"),
		ready:    make(chan struct{}),
	}
}

func (c *Consumer) Start(ctx context.Context) {
	close(c.ready)
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.log.WithFields(logrus.Fields{"topic": topic, "partition": partition}).WithError(err).Error("consumer poll error")
		})

		iter := fetches.RecordIter()
		for !iter.Done() {
			c.processRecord(ctx, iter.Next())
		}

		if err := c.client.CommitRecords(ctx, fetches.Records()...); err != nil {
			c.log.WithError(err).Error("failed to commit records")
		}
	}
}

func (c *Consumer) Ready() <-chan struct{} {
	return c.ready
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) {
	if record.Topic != TopicMutationRequest {
		return
	}

	var req MutationRequest
	if err := json.Unmarshal(record.Value, &req); err != nil {
		c.sendError(ctx, record, req, ErrCodeInvalidRequest, "invalid request payload")
		return
	}
	if req.SchemaVersion != SchemaVersion {
		c.sendError(ctx, record, req, ErrCodeInvalidRequest, "unsupported schema version")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.sendError(ctx, record, req, ErrCodeInvalidRequest, "invalid user id")
		return
	}

	if err := c.accounts.Apply(ctx, userID, req.Name, req.Payload); err != nil {
		code := mapApplyError(err)
		if code == ErrCodeInternalError {
			c.sendResponse(ctx, req.ReplyTo, errorResponse(req.CorrelationID, code, err.Error()))
			return
		}
		c.sendError(ctx, record, req, code, err.Error())
		return
	}

	eligibility := c.accounts.Eligibility(userID)
	c.sendResponse(ctx, req.ReplyTo, successResponse(req.CorrelationID, eligibility))
}

func (c *Consumer) sendResponse(ctx context.Context, topic string, resp *MutationResponse) {
	if topic == "" {
		return
	}
	payload, _ := json.Marshal(resp)
	record := &kgo.Record{
		Topic: topic,
		Value: payload,
	}
	if err := c.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		c.log.WithField("topic", topic).WithError(err).Error("failed to send response")
	}
}

// sendError replies to the caller, if any, and parks the record on the DLQ.
func (c *Consumer) sendError(ctx context.Context, record *kgo.Record, req MutationRequest, code, message string) {
	c.log.WithFields(logrus.Fields{
		"topic":          record.Topic,
		"correlation_id": req.CorrelationID,
		"code":           code,
	}).Warn(message)

	c.sendResponse(ctx, req.ReplyTo, errorResponse(req.CorrelationID, code, message))

	dlqRecord := &kgo.Record{
		Topic: record.Topic + TopicDLQSuffix,
		Key:   record.Key,
		Value: record.Value,
		Headers: []kgo.RecordHeader{
			{Key: ErrorHeaderKey, Value: []byte(message)},
		},
	}
	if err := c.producer.ProduceSync(ctx, dlqRecord).FirstErr(); err != nil {
		c.log.WithField("topic", dlqRecord.Topic).WithError(err).Error("failed to send to dlq")
	}
}

func successResponse(correlationID string, eligibility domain.Eligibility) *MutationResponse {
	return &MutationResponse{
		SchemaVersion: SchemaVersion,
		CorrelationID: correlationID,
		Status:        StatusSuccess,
		Eligibility:   &eligibility,
	}
}

func errorResponse(correlationID, code, message string) *MutationResponse {
	return &MutationResponse{
		SchemaVersion: SchemaVersion,
		CorrelationID: correlationID,
		Status:        StatusError,
		ErrorCode:     code,
		ErrorMessage:  message,
	}
}

func mapApplyError(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownMutation):
		return ErrCodeUnknownMutation
	case domain.IsValidationError(err):
		return ErrCodeValidation
	case errors.Is(err, domain.ErrProjectNotFound):
		return ErrCodeNotFound
	default:
		return ErrCodeInternalError
	}
}
