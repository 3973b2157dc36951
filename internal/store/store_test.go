package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "messages.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestQueueListDelete(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	id1, err := s.Queue(ctx, "aaaaa-aa", "greet", []byte{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.Queue(ctx, "bbbbb-bb", "status", []byte{4})
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Fatal("ids must be unique")
	}

	msgs, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].ID != id1 || msgs[0].Target != "aaaaa-aa" || msgs[0].Method != "greet" {
		t.Errorf("msgs[0]: %+v", msgs[0])
	}
	if !bytes.Equal(msgs[0].Payload, []byte{1, 2, 3}) {
		t.Errorf("payload: %v", msgs[0].Payload)
	}

	if err := s.Delete(ctx, id1); err != nil {
		t.Fatal(err)
	}
	msgs, err = s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].ID != id2 {
		t.Errorf("after delete: %+v", msgs)
	}

	if err := s.Delete(ctx, id1); err == nil {
		t.Error("deleting a missing message should fail")
	}
}
