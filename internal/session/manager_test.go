package session

import (
	"context"
	"testing"
)

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager(context.Background(), testCatalog(3), newMemStore(), nil)

	id, s, err := m.Create("X")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("empty session id")
	}
	if st := s.State(); st.Reviewer != "X" {
		t.Errorf("reviewer = %q, want X", st.Reviewer)
	}

	got, ok := m.Get(id)
	if !ok || got != s {
		t.Error("Get did not return the created session")
	}

	if _, ok := m.Get("nope"); ok {
		t.Error("Get returned a session for an unknown id")
	}
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	m := NewManager(context.Background(), testCatalog(5), newMemStore(), nil)

	_, a, _ := m.Create("X")
	_, b, _ := m.Create("Y")

	a.Advance(Next)
	a.Advance(Next)
	if st := b.State(); st.Index != 0 {
		t.Errorf("session b moved with session a: index = %d", st.Index)
	}
}

func TestManagerSeededFromStore(t *testing.T) {
	ms := newMemStore()
	ms.records[[2]string{"conv-000", "X"}] = rated(0, "X")
	m := NewManager(context.Background(), testCatalog(3), ms, nil)

	_, s, _ := m.Create("X")
	if st := s.State(); st.Reviewed != 1 {
		t.Errorf("reviewed = %d, want 1 from startup snapshot", st.Reviewed)
	}
}

func TestManagerDelete(t *testing.T) {
	m := NewManager(context.Background(), testCatalog(3), newMemStore(), nil)
	id, _, _ := m.Create("")
	if m.Count() != 1 {
		t.Fatalf("Count = %d, want 1", m.Count())
	}
	m.Delete(id)
	if m.Count() != 0 {
		t.Errorf("Count = %d after delete, want 0", m.Count())
	}
}
