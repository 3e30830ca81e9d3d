package hub

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/buzzboard/buzzboard-backend/internal/engine"
	"github.com/buzzboard/buzzboard-backend/internal/session"
)

func TestHub_Create_Get_SamePointer(t *testing.T) {
	ctx := context.Background()
	h := NewHub(ctx, zap.NewNop())
	reply := make(chan *session.Session, 1)

	state := engine.NewState("ZED123", nil)
	h.Inbox() <- CreateSession{Code: "ZED123", State: state, Reply: reply}
	s1 := <-reply

	h.Inbox() <- GetSession{Code: "ZED123", Reply: reply}
	s2 := <-reply

	if s1 == nil || s2 == nil || s1 != s2 {
		t.Fatalf("expected same session pointer")
	}
}

func TestHub_Get_UnknownCodeIsNil(t *testing.T) {
	h := NewHub(context.Background(), zap.NewNop())
	reply := make(chan *session.Session, 1)

	h.Inbox() <- GetSession{Code: "NOPE", Reply: reply}
	if s := <-reply; s != nil {
		t.Fatalf("expected nil for unknown code, got %v", s)
	}
}

func TestHub_Ensure_CreatesOnce(t *testing.T) {
	h := NewHub(context.Background(), zap.NewNop())
	reply := make(chan *session.Session, 1)

	h.Inbox() <- EnsureSession{Code: "AB12CD", State: engine.NewState("AB12CD", nil), Reply: reply}
	s1 := <-reply

	h.Inbox() <- EnsureSession{Code: "AB12CD", State: engine.NewState("AB12CD", nil), Reply: reply}
	s2 := <-reply

	if s1 == nil || s1 != s2 {
		t.Fatalf("ensure must return the existing session")
	}
}

func TestHub_Remove(t *testing.T) {
	h := NewHub(context.Background(), zap.NewNop())
	reply := make(chan *session.Session, 1)

	h.Inbox() <- CreateSession{Code: "GONE01", State: engine.NewState("GONE01", nil), Reply: reply}
	<-reply

	h.Inbox() <- RemoveSession{Code: "GONE01"}

	h.Inbox() <- GetSession{Code: "GONE01", Reply: reply}
	if s := <-reply; s != nil {
		t.Fatalf("expected session to be removed")
	}
}
