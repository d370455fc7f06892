package chunkstore

import (
	"context"
	"errors"
	"testing"
)

type mockKV struct {
	data   map[string][]byte
	getErr error
	setErr error
	mgets  [][]string
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string][]byte)}
}

func (m *mockKV) MGet(_ context.Context, keys []string) ([][]byte, error) {
	m.mgets = append(m.mgets, keys)
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := m.data[k]; ok {
			out[i] = v
		}
	}
	return out, nil
}

func (m *mockKV) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func TestPutGetRoundtrip(t *testing.T) {
	kv := newMockKV()
	s := New(kv)
	ctx := context.Background()

	texts := map[string]string{
		"a1-p1-c0": "The minimum weight of the car is 798 kg.",
		"a1-p1-c1": "Fuel flow must not exceed the prescribed limit.",
	}
	if err := s.PutMany(ctx, texts); err != nil {
		t.Fatalf("PutMany: %v", err)
	}

	got, err := s.GetMany(ctx, []string{"a1-p1-c0", "a1-p1-c1"})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	for id, want := range texts {
		if got[id] != want {
			t.Fatalf("text for %s = %q, want %q", id, got[id], want)
		}
	}
}

func TestGetMany_KeysArePrefixed(t *testing.T) {
	kv := newMockKV()
	s := New(kv)

	if _, err := s.GetMany(context.Background(), []string{"a1-p1-c0"}); err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(kv.mgets) != 1 || kv.mgets[0][0] != "regsearch:chunk:a1-p1-c0" {
		t.Fatalf("mget keys = %v", kv.mgets)
	}
}

func TestGetMany_MissingIDsAbsent(t *testing.T) {
	kv := newMockKV()
	kv.data["regsearch:chunk:known"] = []byte("text")
	s := New(kv)

	got, err := s.GetMany(context.Background(), []string{"known", "missing"})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(got) != 1 || got["known"] != "text" {
		t.Fatalf("result = %v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Fatal("missing ids must be absent, not empty")
	}
}

func TestGetMany_Empty(t *testing.T) {
	s := New(newMockKV())

	got, err := s.GetMany(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("result = %v, want empty", got)
	}
}

func TestGetMany_StoreError(t *testing.T) {
	kv := newMockKV()
	kv.getErr = errors.New("connection reset")
	s := New(kv)

	if _, err := s.GetMany(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestPutMany_StoreError(t *testing.T) {
	kv := newMockKV()
	kv.setErr = errors.New("connection reset")
	s := New(kv)

	if err := s.PutMany(context.Background(), map[string]string{"a": "text"}); err == nil {
		t.Fatal("expected store error to propagate")
	}
}
