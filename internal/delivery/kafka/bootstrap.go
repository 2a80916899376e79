package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/azizikri/project-eligibility/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

func ReplyTopic(instanceID string) string {
	return TopicReplyPrefix + instanceID
}

func EnsureTopics(ctx context.Context, client *kgo.Client, cfg *config.Config, log logrus.FieldLogger) error {
	adm := kadm.NewClient(client)

	topics := []string{
		TopicMutationRequest,
		TopicMutationRequest + TopicDLQSuffix,
		ReplyTopic(cfg.KafkaInstanceID),
	}

	partitions := cfg.TopicPartitions()
	dlqPartitions := cfg.DLQPartitions()
	replicationFactor := cfg.ReplicationFactor()

	for _, topic := range topics {
		p := partitions
		if strings.HasSuffix(topic, TopicDLQSuffix) {
			p = dlqPartitions
		}

		resp, err := adm.CreateTopics(ctx, int32(p), replicationFactor, nil, topic)
		if err != nil {
			return fmt.Errorf("failed to create topic %s: %w", topic, err)
		}
		for _, detail := range resp {
			if detail.Err != nil && !strings.Contains(detail.Err.Error(), "already exists") {
				return fmt.Errorf("failed to create topic %s: %w", detail.Topic, detail.Err)
			}
		}
	}

	log.WithField("topics", topics).Info("all topics ensured")
	return nil
}
