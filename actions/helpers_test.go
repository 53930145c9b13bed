package actions

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/relloyd/starpipe/aws/s3"
	"github.com/relloyd/starpipe/config"
	"github.com/relloyd/starpipe/dependency"
	"github.com/relloyd/starpipe/file"
	"github.com/relloyd/starpipe/logger"
	"github.com/relloyd/starpipe/table"
)

var testLog = logger.NewLogger("starpipe", "error", false)

type memObject struct {
	data     []byte
	modified time.Time
}

// memStore is an in-memory s3.BasicClient. Put stamps objects with the time returned by clock.
type memStore struct {
	mu      sync.Mutex
	objects map[string]memObject
	clock   func() time.Time
}

func newMemStore(clock func() time.Time) *memStore {
	return &memStore{objects: make(map[string]memObject), clock: clock}
}

func (m *memStore) List(_ context.Context, prefix string) ([]s3.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]s3.Object, 0, len(m.objects))
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, s3.Object{Key: k, LastModified: v.modified, Size: int64(len(v.data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.objects[key]
	if !ok {
		return nil, s3.ErrKeyNotFound
	}
	return v.data, nil
}

func (m *memStore) Put(_ context.Context, key string, data []byte) error {
	m.putAt(key, data, m.clock())
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) putAt(key string, data []byte, modified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: data, modified: modified}
}

func (m *memStore) keys() []string {
	objects, _ := m.List(context.Background(), "")
	out := make([]string, 0, len(objects))
	for _, o := range objects {
		out = append(out, o.Key)
	}
	return out
}

type fakeCurrency struct {
	names map[string]string
	calls int
}

func (f *fakeCurrency) FetchNames(_ context.Context) (map[string]string, error) {
	f.calls++
	return f.names, nil
}

// clock is a settable time source shared by a Runtime and its stores.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestRuntime(clk *clock) *Runtime {
	cfg := config.NewPipeline()
	cfg.DateStart = "2025-01-01"
	cfg.DateEnd = "2025-01-03"
	cfg.IngestWorkers = 1
	return &Runtime{
		Log:            testLog,
		Cfg:            cfg,
		Graph:          dependency.Default(),
		IngestStore:    newMemStore(clk.Now),
		TransformStore: newMemStore(clk.Now),
		Currency:       &fakeCurrency{names: map[string]string{"gbp": "British Pound", "usd": "US Dollar"}},
		Now:            clk.Now,
	}
}

func mustCSV(t *testing.T, ds *table.Dataset) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := file.WriteCSV(buf, ds); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func mustParquet(t *testing.T, ds *table.Dataset) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := file.WriteParquet(buf, ds); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func readParquet(t *testing.T, store *memStore, key string) *table.Dataset {
	t.Helper()
	data, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("missing %v: %v", key, err)
	}
	ds, err := file.ReadParquet(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func staffRaw() *table.Dataset {
	return table.MustNew(
		table.Column{Name: "staff_id", Values: []interface{}{int64(1), int64(2), int64(3)}},
		table.Column{Name: "first_name", Values: []interface{}{"Jeremie", "Deron", "Jeanette"}},
		table.Column{Name: "last_name", Values: []interface{}{"Franey", "Beier", "Erdman"}},
		table.Column{Name: "department_id", Values: []interface{}{int64(2), int64(1), int64(2)}},
		table.Column{Name: "email_address", Values: []interface{}{"jeremie.franey@terrifictotes.com", "deron.beier@terrifictotes.com", "jeanette.erdman@terrifictotes.com"}},
	)
}

func departmentRaw() *table.Dataset {
	return table.MustNew(
		table.Column{Name: "department_id", Values: []interface{}{int64(1), int64(2)}},
		table.Column{Name: "department_name", Values: []interface{}{"Sales", "Purchasing"}},
		table.Column{Name: "location", Values: []interface{}{"Manchester", "Leeds"}},
	)
}

func currencyRaw(codes ...string) *table.Dataset {
	ids := make([]interface{}, len(codes))
	vals := make([]interface{}, len(codes))
	for idx, c := range codes {
		ids[idx] = int64(idx + 1)
		vals[idx] = c
	}
	return table.MustNew(
		table.Column{Name: "currency_id", Values: ids},
		table.Column{Name: "currency_code", Values: vals},
	)
}
