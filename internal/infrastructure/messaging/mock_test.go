// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-meeting-bot-service/internal/domain"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/mock"
)

type mockJetStream struct {
	mock.Mock
}

func (m *mockJetStream) PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jetstream.PubAck), args.Error(1)
}

func (m *mockJetStream) CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(jetstream.Stream), args.Error(1)
}

func (m *mockJetStream) CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error) {
	args := m.Called(ctx, stream, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(jetstream.Consumer), args.Error(1)
}

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) HandleMessage(ctx context.Context, msg domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockHandler) HandlerReady() bool {
	args := m.Called()
	return args.Bool(0)
}

// fakeMsg records the acknowledgement a consumer sent.
type fakeMsg struct {
	mu        sync.Mutex
	subject   string
	data      []byte
	headers   nats.Header
	delivered uint64

	acked      bool
	naked      bool
	nakDelay   time.Duration
	termReason string
	inProgress int
}

func newFakeMsg(subject string, data []byte) *fakeMsg {
	return &fakeMsg{subject: subject, data: data, headers: nats.Header{}, delivered: 1}
}

func (f *fakeMsg) Subject() string      { return f.subject }
func (f *fakeMsg) Data() []byte         { return f.data }
func (f *fakeMsg) Headers() nats.Header { return f.headers }

func (f *fakeMsg) Metadata() (*jetstream.MsgMetadata, error) {
	return &jetstream.MsgMetadata{NumDelivered: f.delivered}, nil
}

func (f *fakeMsg) Ack() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = true
	return nil
}

func (f *fakeMsg) Nak() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.naked = true
	return nil
}

func (f *fakeMsg) NakWithDelay(delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.naked = true
	f.nakDelay = delay
	return nil
}

func (f *fakeMsg) InProgress() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inProgress++
	return nil
}

func (f *fakeMsg) TermWithReason(reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.termReason = reason
	return nil
}
