// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// mockKeyValueEntry implements jetstream.KeyValueEntry for testing
type mockKeyValueEntry struct {
	key      string
	value    []byte
	revision uint64
}

func (m *mockKeyValueEntry) Key() string                     { return m.key }
func (m *mockKeyValueEntry) Value() []byte                   { return m.value }
func (m *mockKeyValueEntry) Revision() uint64                { return m.revision }
func (m *mockKeyValueEntry) Created() time.Time              { return time.Now() }
func (m *mockKeyValueEntry) Delta() uint64                   { return 0 }
func (m *mockKeyValueEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }
func (m *mockKeyValueEntry) Bucket() string                  { return "test-bucket" }

// mockKeyLister implements jetstream.KeyLister for testing
type mockKeyLister struct {
	keys []string
}

func (m *mockKeyLister) Keys() <-chan string {
	ch := make(chan string, len(m.keys))
	for _, key := range m.keys {
		ch <- key
	}
	close(ch)
	return ch
}

func (m *mockKeyLister) Stop() error { return nil }

// mockNatsKeyValue is an in-memory INatsKeyValue with a global revision counter
type mockNatsKeyValue struct {
	mu          sync.Mutex
	data        map[string][]byte
	revisions   map[string]uint64
	sequence    uint64
	putError    error
	getError    error
	deleteError error
	updateError error
	listError   error
	// beforeUpdate runs once before the next Update, letting tests inject a concurrent writer
	beforeUpdate func(key string)
}

func newMockNatsKeyValue() *mockNatsKeyValue {
	return &mockNatsKeyValue{
		data:      make(map[string][]byte),
		revisions: make(map[string]uint64),
	}
}

func (m *mockNatsKeyValue) sortedKeys(filters ...string) []string {
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		if len(filters) == 0 || matchesAnyFilter(key, filters) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (m *mockNatsKeyValue) ListKeys(ctx context.Context, opts ...jetstream.WatchOpt) (jetstream.KeyLister, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	return &mockKeyLister{keys: m.sortedKeys()}, nil
}

func (m *mockNatsKeyValue) ListKeysFiltered(ctx context.Context, filters ...string) (jetstream.KeyLister, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	return &mockKeyLister{keys: m.sortedKeys(filters...)}, nil
}

func (m *mockNatsKeyValue) Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	value, exists := m.data[key]
	if !exists {
		return nil, jetstream.ErrKeyNotFound
	}
	return &mockKeyValueEntry{key: key, value: value, revision: m.revisions[key]}, nil
}

func (m *mockNatsKeyValue) store(key string, data []byte) uint64 {
	m.sequence++
	m.data[key] = data
	m.revisions[key] = m.sequence
	return m.sequence
}

func (m *mockNatsKeyValue) Put(ctx context.Context, key string, data []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putError != nil {
		return 0, m.putError
	}
	return m.store(key, data), nil
}

func (m *mockNatsKeyValue) Create(ctx context.Context, key string, data []byte, opts ...jetstream.KVCreateOpt) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putError != nil {
		return 0, m.putError
	}
	if _, exists := m.data[key]; exists {
		return 0, jetstream.ErrKeyExists
	}
	return m.store(key, data), nil
}

func (m *mockNatsKeyValue) Update(ctx context.Context, key string, data []byte, expectedRevision uint64) (uint64, error) {
	if hook := m.takeBeforeUpdate(); hook != nil {
		hook(key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateError != nil {
		return 0, m.updateError
	}
	currentRevision, exists := m.revisions[key]
	if !exists {
		return 0, jetstream.ErrKeyNotFound
	}
	if currentRevision != expectedRevision {
		return 0, &wrongSequenceError{}
	}
	return m.store(key, data), nil
}

func (m *mockNatsKeyValue) takeBeforeUpdate() func(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hook := m.beforeUpdate
	m.beforeUpdate = nil
	return hook
}

func (m *mockNatsKeyValue) Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteError != nil {
		return m.deleteError
	}
	if _, exists := m.data[key]; !exists {
		return jetstream.ErrKeyNotFound
	}
	delete(m.data, key)
	delete(m.revisions, key)
	return nil
}

type wrongSequenceError struct{}

func (*wrongSequenceError) Error() string { return "nats: wrong last sequence: 3" }

// matchesAnyFilter applies NATS subject wildcard matching to dot separated keys
func matchesAnyFilter(key string, filters []string) bool {
	for _, filter := range filters {
		if matchesFilter(key, filter) {
			return true
		}
	}
	return false
}

func matchesFilter(key, filter string) bool {
	keyTokens := strings.Split(key, ".")
	filterTokens := strings.Split(filter, ".")
	for i, ft := range filterTokens {
		if ft == ">" {
			return len(keyTokens) > i
		}
		if i >= len(keyTokens) {
			return false
		}
		if ft != "*" && ft != keyTokens[i] {
			return false
		}
	}
	return len(keyTokens) == len(filterTokens)
}

// mockObjectResult implements jetstream.ObjectResult for testing
type mockObjectResult struct {
	io.Reader
	info *jetstream.ObjectInfo
}

func (m *mockObjectResult) Close() error                         { return nil }
func (m *mockObjectResult) Info() (*jetstream.ObjectInfo, error) { return m.info, nil }
func (m *mockObjectResult) Error() error                         { return nil }

// mockNatsObjectStore is an in-memory INatsObjectStore
type mockNatsObjectStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	infos    map[string]*jetstream.ObjectInfo
	putError error
}

func newMockNatsObjectStore() *mockNatsObjectStore {
	return &mockNatsObjectStore{
		objects: make(map[string][]byte),
		infos:   make(map[string]*jetstream.ObjectInfo),
	}
}

func (m *mockNatsObjectStore) Put(ctx context.Context, obj jetstream.ObjectMeta, reader io.Reader) (*jetstream.ObjectInfo, error) {
	if m.putError != nil {
		return nil, m.putError
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	info := &jetstream.ObjectInfo{
		ObjectMeta: obj,
		Bucket:     "test-objects",
		Size:       uint64(len(data)),
		ModTime:    time.Now().UTC(),
	}
	m.objects[obj.Name] = data
	m.infos[obj.Name] = info
	return info, nil
}

func (m *mockNatsObjectStore) Get(ctx context.Context, name string, opts ...jetstream.GetObjectOpt) (jetstream.ObjectResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	if !ok {
		return nil, jetstream.ErrObjectNotFound
	}
	return &mockObjectResult{Reader: bytes.NewReader(data), info: m.infos[name]}, nil
}

func (m *mockNatsObjectStore) GetInfo(ctx context.Context, name string, opts ...jetstream.GetObjectInfoOpt) (*jetstream.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.infos[name]
	if !ok {
		return nil, jetstream.ErrObjectNotFound
	}
	return info, nil
}

func (m *mockNatsObjectStore) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[name]; !ok {
		return jetstream.ErrObjectNotFound
	}
	delete(m.objects, name)
	delete(m.infos, name)
	return nil
}
