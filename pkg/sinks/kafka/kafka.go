// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

// Package kafka provides a sink publishing records as JSON messages to
// a Kafka topic, one message per record, batched per buffer.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/viper"

	"github.com/pulse-metrics/pulse/pkg/metrics"
	"github.com/pulse-metrics/pulse/pkg/metricsystem"
)

// ClassName selects this sink in configuration.
const ClassName = "kafka"

func init() {
	metricsystem.RegisterSinkType(ClassName, func() metrics.Sink { return &Sink{} })
}

// Sink accumulates one buffer's records and ships them on Flush, so a
// delivery failure surfaces to the adapter's retry machinery as one
// unit:
//
//	sink.<name>.brokers        comma separated broker list (required)
//	sink.<name>.topic          topic name (required)
//	sink.<name>.write-timeout  per-flush timeout (default 10s)
type Sink struct {
	mu      sync.Mutex
	writer  *kafka.Writer
	timeout time.Duration
	pending []kafka.Message
}

func (s *Sink) Configure(conf *viper.Viper) error {
	var brokers []string
	for _, b := range conf.GetStringSlice("brokers") {
		for _, p := range strings.Split(b, ",") {
			if p = strings.TrimSpace(p); p != "" {
				brokers = append(brokers, p)
			}
		}
	}
	if len(brokers) == 0 {
		if b := conf.GetString("brokers"); b != "" {
			brokers = []string{b}
		}
	}
	topic := conf.GetString("topic")
	if len(brokers) == 0 || topic == "" {
		return fmt.Errorf("kafka sink requires brokers and topic")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	s.timeout = 10 * time.Second
	if d := conf.GetDuration("write-timeout"); d > 0 {
		s.timeout = d
	}
	return nil
}

func (s *Sink) PutMetrics(r metrics.Record) error {
	value, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, kafka.Message{
		Key:   []byte(r.Name()),
		Value: value,
	})
	return nil
}

func (s *Sink) Flush() error {
	s.mu.Lock()
	writer := s.writer
	batch := s.pending
	s.pending = nil
	timeout := s.timeout
	s.mu.Unlock()
	if writer == nil {
		return fmt.Errorf("kafka sink not configured")
	}
	if len(batch) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return writer.WriteMessages(ctx, batch...)
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
