// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse

// Package redis provides a sink pushing records as JSON onto a capped
// Redis list, a lightweight shared buffer for dashboards and tests.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/pulse-metrics/pulse/pkg/metrics"
	"github.com/pulse-metrics/pulse/pkg/metricsystem"
)

// ClassName selects this sink in configuration.
const ClassName = "redis"

func init() {
	metricsystem.RegisterSinkType(ClassName, func() metrics.Sink { return &Sink{} })
}

// Sink LPUSHes one JSON document per record and trims the list to the
// configured bound on every flush:
//
//	sink.<name>.address     redis address (default localhost:6379)
//	sink.<name>.password    optional password
//	sink.<name>.db          database index (default 0)
//	sink.<name>.key         list key (default "pulse:records")
//	sink.<name>.max-length  list bound (default 10000)
type Sink struct {
	mu        sync.Mutex
	client    *redis.Client
	key       string
	maxLength int64
	timeout   time.Duration
	pending   []any
}

func (s *Sink) Configure(conf *viper.Viper) error {
	addr := conf.GetString("address")
	if addr == "" {
		addr = "localhost:6379"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: conf.GetString("password"),
		DB:       conf.GetInt("db"),
	})
	s.key = conf.GetString("key")
	if s.key == "" {
		s.key = "pulse:records"
	}
	s.maxLength = conf.GetInt64("max-length")
	if s.maxLength <= 0 {
		s.maxLength = 10000
	}
	s.timeout = 5 * time.Second
	return nil
}

func (s *Sink) PutMetrics(r metrics.Record) error {
	value, err := json.Marshal(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, value)
	return nil
}

func (s *Sink) Flush() error {
	s.mu.Lock()
	client := s.client
	batch := s.pending
	s.pending = nil
	key, maxLength, timeout := s.key, s.maxLength, s.timeout
	s.mu.Unlock()
	if client == nil {
		return fmt.Errorf("redis sink not configured")
	}
	if len(batch) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	pipe := client.Pipeline()
	pipe.LPush(ctx, key, batch...)
	pipe.LTrim(ctx, key, 0, maxLength-1)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
