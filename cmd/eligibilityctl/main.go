// Command eligibilityctl commits one named mutation to a user's session over
// Kafka and prints the eligibility the service reports back.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/azizikri/project-eligibility/internal/config"
	"github.com/azizikri/project-eligibility/internal/delivery/kafka"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"
)

func main() {
	var (
		userID  string
		name    string
		payload string
	)
	flag.StringVar(&userID, "user", "", "user id (uuid)")
	flag.StringVar(&name, "name", "", "mutation name, e.g. SET_BALANCE")
	flag.StringVar(&payload, "payload", "", "JSON payload, or @file to read it from a file")
	flag.Parse()

	if err := run(userID, name, payload); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(rawUserID, name, payload string) error {
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return fmt.Errorf("invalid -user: %w", err)
	}
	if name == "" {
		return errors.New("-name is required")
	}
	body, err := readPayload(payload)
	if err != nil {
		return err
	}

	cfg := config.Load()
	cfg.KafkaInstanceID = replyInstanceID(cfg)

	log := logrus.New()
	log.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(cfg.KafkaClientID+"-ctl"),
		kgo.ConsumeTopics(kafka.ReplyTopic(cfg.KafkaInstanceID)),
	)
	if err != nil {
		return fmt.Errorf("create kafka client: %w", err)
	}
	defer client.Close()

	if err := kafka.EnsureTopics(ctx, client, cfg, log); err != nil {
		return err
	}

	gateway := kafka.NewGateway(client, cfg.KafkaInstanceID, log)
	go gateway.Listen(ctx, client)

	eligibility, err := gateway.Commit(ctx, userID, name, body)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(eligibility)
}

// replyInstanceID names the reply topic after the host's instance id so every
// run on one host shares a single topic. Replies for other runs are ignored by
// correlation id.
func replyInstanceID(cfg *config.Config) string {
	return cfg.KafkaInstanceID + "-ctl"
}

func readPayload(payload string) (json.RawMessage, error) {
	if !strings.HasPrefix(payload, "@") {
		if payload == "" {
			return nil, nil
		}
		return json.RawMessage(payload), nil
	}
	data, err := os.ReadFile(strings.TrimPrefix(payload, "@"))
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}
