package repofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-session-client/storage"
)

var _ storage.BatchRepo = (*FakeRepo)(nil)

// FakeRepo is an in-memory storage.BatchRepo. It backs the "memory" storage
// backend and is the default repo in tests.
type FakeRepo struct {
	values map[string]string
	lock   sync.RWMutex

	// Optional hooks to simulate storage faults in tests
	SetErr    func(key string) error
	RemoveErr func(key string) error
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		values: make(map[string]string),
	}
}

func (fr *FakeRepo) Set(_ context.Context, key, value string) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	if fr.SetErr != nil {
		if err := fr.SetErr(key); err != nil {
			return err
		}
	}
	fr.values[key] = value
	return nil
}

func (fr *FakeRepo) Get(_ context.Context, key string) (string, error) {
	fr.lock.RLock()
	defer fr.lock.RUnlock()

	value, ok := fr.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (fr *FakeRepo) Remove(_ context.Context, key string) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	if fr.RemoveErr != nil {
		if err := fr.RemoveErr(key); err != nil {
			return err
		}
	}
	delete(fr.values, key)
	return nil
}

func (fr *FakeRepo) SetAll(_ context.Context, entries map[string]string) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	if fr.SetErr != nil {
		for key := range entries {
			if err := fr.SetErr(key); err != nil {
				return err
			}
		}
	}
	for key, value := range entries {
		fr.values[key] = value
	}
	return nil
}

func (fr *FakeRepo) RemoveAll(_ context.Context, keys ...string) error {
	fr.lock.Lock()
	defer fr.lock.Unlock()

	if fr.RemoveErr != nil {
		for _, key := range keys {
			if err := fr.RemoveErr(key); err != nil {
				return err
			}
		}
	}
	for _, key := range keys {
		delete(fr.values, key)
	}
	return nil
}

// Len returns the number of stored keys.
func (fr *FakeRepo) Len() int {
	fr.lock.RLock()
	defer fr.lock.RUnlock()
	return len(fr.values)
}

// Snapshot returns a copy of the stored entries.
func (fr *FakeRepo) Snapshot() map[string]string {
	fr.lock.RLock()
	defer fr.lock.RUnlock()

	snapshot := make(map[string]string, len(fr.values))
	for k, v := range fr.values {
		snapshot[k] = v
	}
	return snapshot
}
