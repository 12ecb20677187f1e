package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, ok, err := m.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = ok %v err %v", ok, err)
	}
	if err := m.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if val, ok, err := m.Get(ctx, "k"); !ok || err != nil || val != "v" {
		t.Fatalf("Get(k) = %q, %v, %v", val, ok, err)
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Set(ctx, "k", "v")
			_, _, _ = m.Get(ctx, "k")
		}()
	}
	wg.Wait()
}

func TestFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	f := NewFile(path)

	if _, ok, err := f.Get(ctx, constants.ProfileKey); ok || err != nil {
		t.Fatalf("Get() on missing file = ok %v err %v", ok, err)
	}
	if err := f.Set(ctx, constants.ProfileKey, `{"email":"a@b.co"}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := f.Set(ctx, "other", "x"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	reopened := NewFile(path)
	val, ok, err := reopened.Get(ctx, constants.ProfileKey)
	if err != nil || !ok || val != `{"email":"a@b.co"}` {
		t.Fatalf("Get() after reopen = %q, %v, %v", val, ok, err)
	}
	if val, ok, _ := reopened.Get(ctx, "other"); !ok || val != "x" {
		t.Errorf("second key lost: %q %v", val, ok)
	}
}

func TestFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	f := NewFile(path)
	if _, _, err := f.Get(context.Background(), "k"); err == nil {
		t.Errorf("Get() expected error for corrupt file")
	}
	if err := f.Set(context.Background(), "k", "v"); err == nil {
		t.Errorf("Set() expected error for corrupt file")
	}
}

func TestFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, ok, err := NewFile(path).Get(context.Background(), "k"); ok || err != nil {
		t.Errorf("Get() on empty file = ok %v err %v", ok, err)
	}
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedis(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		prefix    string
		seed      map[string]string
		set       map[string]string
		key       string
		wantValue string
		wantOK    bool
		storedKey string
	}{
		{
			name:      "Set then get",
			prefix:    "deal-analyzer:",
			set:       map[string]string{constants.ProfileKey: `{"email":"a@b.co"}`},
			key:       constants.ProfileKey,
			wantValue: `{"email":"a@b.co"}`,
			wantOK:    true,
			storedKey: "deal-analyzer:" + constants.ProfileKey,
		},
		{
			name:   "Missing key",
			prefix: "deal-analyzer:",
			key:    constants.ProfileKey,
		},
		{
			name:      "No prefix",
			set:       map[string]string{"k": "v"},
			key:       "k",
			wantValue: "v",
			wantOK:    true,
			storedKey: "k",
		},
		{
			name:      "Reads written by another client",
			prefix:    "test:",
			seed:      map[string]string{"test:k": "seeded"},
			key:       "k",
			wantValue: "seeded",
			wantOK:    true,
			storedKey: "test:k",
		},
		{
			name:   "Prefix isolates keys",
			prefix: "test:",
			seed:   map[string]string{"k": "unprefixed"},
			key:    "k",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, client := newMiniredis(t)
			for k, v := range tt.seed {
				if err := mr.Set(k, v); err != nil {
					t.Fatalf("seeding %s: %v", k, err)
				}
			}

			r := NewRedis(client, tt.prefix)
			for k, v := range tt.set {
				if err := r.Set(ctx, k, v); err != nil {
					t.Fatalf("Set(%s) error = %v", k, err)
				}
			}

			val, ok, err := r.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get(%s) error = %v", tt.key, err)
			}
			if ok != tt.wantOK || val != tt.wantValue {
				t.Errorf("Get(%s) = %q, %v; expected %q, %v", tt.key, val, ok, tt.wantValue, tt.wantOK)
			}

			if tt.storedKey != "" {
				stored, err := mr.Get(tt.storedKey)
				if err != nil || stored != tt.wantValue {
					t.Errorf("stored key %s = %q, %v", tt.storedKey, stored, err)
				}
				if ttl := mr.TTL(tt.storedKey); ttl != 0 {
					t.Errorf("stored key %s has ttl %s, expected none", tt.storedKey, ttl)
				}
			}
		})
	}
}

func TestRedisOverwrite(t *testing.T) {
	ctx := context.Background()
	_, client := newMiniredis(t)
	r := NewRedis(client, "p:")

	for _, v := range []string{"first", "second"} {
		if err := r.Set(ctx, "k", v); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
	}
	if val, ok, err := r.Get(ctx, "k"); err != nil || !ok || val != "second" {
		t.Errorf("Get() = %q, %v, %v; expected the last write", val, ok, err)
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	s, err := New(nil, Options{Backend: constants.StorageBackendRedis, RedisAddr: mr.Addr(), KeyPrefix: "p:"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := Close(s); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, _, err := s.Get(ctx, "k"); err == nil {
		t.Errorf("Get() after Close() expected error")
	}

	if err := Close(NewMemory()); err != nil {
		t.Errorf("Close(memory) error = %v", err)
	}
	if err := Close(NewFile(filepath.Join(t.TempDir(), "s.json"))); err != nil {
		t.Errorf("Close(file) error = %v", err)
	}
}

func TestRedisUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = client.Close() }()

	r := NewRedis(client, "test:")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, ok, err := r.Get(ctx, "k"); err == nil || ok {
		t.Errorf("Get() against unreachable redis = ok %v err %v, expected error", ok, err)
	}
	if err := r.Set(ctx, "k", "v"); err == nil {
		t.Errorf("Set() against unreachable redis expected error")
	}
}

func TestNew(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"Default is memory", Options{}, false},
		{"Memory", Options{Backend: constants.StorageBackendMemory}, false},
		{"File", Options{Backend: constants.StorageBackendFile, Path: filepath.Join(t.TempDir(), "s.json")}, false},
		{"Redis", Options{Backend: constants.StorageBackendRedis, RedisAddr: "127.0.0.1:6379"}, false},
		{"Redis without address", Options{Backend: constants.StorageBackendRedis}, true},
		{"Unknown backend", Options{Backend: "etcd"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(logger, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Errorf("New() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if s == nil {
				t.Fatalf("New() returned nil store")
			}
		})
	}

	if _, ok := mustNew(t, Options{}).(*Memory); !ok {
		t.Errorf("default backend is not *Memory")
	}
	if _, ok := mustNew(t, Options{Backend: constants.StorageBackendRedis, RedisAddr: "127.0.0.1:6379"}).(*Redis); !ok {
		t.Errorf("redis backend is not *Redis")
	}
}

func mustNew(t *testing.T, opts Options) Store {
	t.Helper()
	s, err := New(nil, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}
