package events

import (
	"sync"

	"github.com/arclytics/go-client-sdk/v2/interfaces"
)

// mockEventSender records every batch it is handed and returns a configurable
// result. If gateCh is set before use, SendEvents blocks on it after
// announcing the batch, so tests can interleave other operations with an
// in-flight flush.
type mockEventSender struct {
	lock       sync.Mutex
	configured bool
	result     error
	gateCh     chan struct{}
	batchCh    chan []Event
}

func newMockEventSender() *mockEventSender {
	return &mockEventSender{
		configured: true,
		batchCh:    make(chan []Event, 10),
	}
}

func (s *mockEventSender) Configured() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.configured
}

func (s *mockEventSender) setResult(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.result = err
}

func (s *mockEventSender) SendEvents(events []Event) error {
	s.lock.Lock()
	gate := s.gateCh
	result := s.result
	s.lock.Unlock()

	s.batchCh <- events
	if gate != nil {
		<-gate
	}
	return result
}

type mockConnectivityMonitor struct {
	lock         sync.Mutex
	callback     func(online bool)
	subscribes   int
	unsubscribes int
}

func (m *mockConnectivityMonitor) Subscribe(callback func(online bool)) func() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.callback = callback
	m.subscribes++
	return func() {
		m.lock.Lock()
		defer m.lock.Unlock()
		m.callback = nil
		m.unsubscribes++
	}
}

func (m *mockConnectivityMonitor) notify(online bool) {
	m.lock.Lock()
	callback := m.callback
	m.lock.Unlock()
	if callback != nil {
		callback(online)
	}
}

func (m *mockConnectivityMonitor) counts() (subscribes, unsubscribes int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.subscribes, m.unsubscribes
}

type mockLifecycleMonitor struct {
	lock         sync.Mutex
	callback     func(state interfaces.AppState)
	subscribes   int
	unsubscribes int
}

func (m *mockLifecycleMonitor) Subscribe(callback func(state interfaces.AppState)) func() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.callback = callback
	m.subscribes++
	return func() {
		m.lock.Lock()
		defer m.lock.Unlock()
		m.callback = nil
		m.unsubscribes++
	}
}

func (m *mockLifecycleMonitor) notify(state interfaces.AppState) {
	m.lock.Lock()
	callback := m.callback
	m.lock.Unlock()
	if callback != nil {
		callback(state)
	}
}

func (m *mockLifecycleMonitor) counts() (subscribes, unsubscribes int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.subscribes, m.unsubscribes
}

// mockStorage is an in-memory PersistentStorage with injectable failures.
type mockStorage struct {
	lock      sync.Mutex
	data      map[string]string
	getErr    error
	setErr    error
	removeErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{data: make(map[string]string)}
}

func (s *mockStorage) Get(key string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.data[key], nil
}

func (s *mockStorage) Set(key string, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *mockStorage) Remove(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.data, key)
	return nil
}

func (s *mockStorage) stored(key string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.data[key]
}
