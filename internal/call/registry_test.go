package call

import (
	"fmt"
	"sync"
	"testing"

	"github.com/chadiek/claimline/internal/transcript"
)

func registrySession(sid string) (*Session, *fakeEngine) {
	eng := &fakeEngine{}
	return NewSession(sid, eng, &fakeTelephony{}, nil, transcript.NopSink{}), eng
}

func TestRegistry_AddGetRemove(t *testing.T) {
	r := NewRegistry()
	s, _ := registrySession("MZ1")

	if err := r.Add(s); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got, ok := r.Get("MZ1"); !ok || got != s {
		t.Fatal("get after add failed")
	}
	if r.Len() != 1 {
		t.Fatalf("len: got %d, want 1", r.Len())
	}

	r.Remove("MZ1")
	if _, ok := r.Get("MZ1"); ok {
		t.Fatal("session survived remove")
	}
	// removing again is a no-op
	r.Remove("MZ1")
	if r.Len() != 0 {
		t.Fatalf("len after removes: got %d", r.Len())
	}
}

func TestRegistry_RejectsDuplicateStream(t *testing.T) {
	r := NewRegistry()
	a, _ := registrySession("MZ1")
	b, _ := registrySession("MZ1")

	if err := r.Add(a); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := r.Add(b); err == nil {
		t.Fatal("duplicate stream SID must be refused")
	}
	if got, _ := r.Get("MZ1"); got != a {
		t.Fatal("duplicate add replaced the original session")
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry()
	s1, e1 := registrySession("MZ1")
	s2, e2 := registrySession("MZ2")
	if err := r.Add(s1); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(s2); err != nil {
		t.Fatal(err)
	}

	r.CloseAll()

	if r.Len() != 0 {
		t.Fatalf("registry not emptied: %d", r.Len())
	}
	for i, e := range []*fakeEngine{e1, e2} {
		e.mu.Lock()
		closed := e.closed
		e.mu.Unlock()
		if !closed {
			t.Fatalf("engine %d not closed", i+1)
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("MZ%d", i)
			s, _ := registrySession(sid)
			if err := r.Add(s); err != nil {
				t.Errorf("add %s: %v", sid, err)
				return
			}
			if _, ok := r.Get(sid); !ok {
				t.Errorf("get %s failed", sid)
			}
			r.Remove(sid)
		}(i)
	}
	wg.Wait()
	if r.Len() != 0 {
		t.Fatalf("leftover sessions: %d", r.Len())
	}
}
