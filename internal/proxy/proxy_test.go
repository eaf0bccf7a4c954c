package proxy

import (
	"testing"

	"streamcast/internal/minimsg"
	"streamcast/pkg/logx"
)

func TestRegisterRejectsDuplicateName(t *testing.T) {
	t.Parallel()
	px := New(logx.Nop())

	if err := px.Register(NewPlayer("s1", "Alice", nil, 4)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := px.Register(NewPlayer("s2", "alice", nil, 4)); err == nil {
		t.Fatal("expected duplicate name rejection")
	}
	if got := px.PlayerCount(); got != 1 {
		t.Fatalf("PlayerCount = %d", got)
	}

	px.Unregister("s1")
	if got := px.PlayerCount(); got != 0 {
		t.Fatalf("PlayerCount after unregister = %d", got)
	}
	if err := px.Register(NewPlayer("s3", "Alice", nil, 4)); err != nil {
		t.Fatalf("name not released: %v", err)
	}
}

func TestPlayerSendAfterClose(t *testing.T) {
	t.Parallel()
	p := NewPlayer("s1", "Alice", []string{"livebroadcast.use"}, 2)
	if !p.HasPermission("livebroadcast.use") {
		t.Fatal("permission missing")
	}
	if p.HasPermission("other.node") {
		t.Fatal("unexpected permission")
	}

	if err := p.SendComponent(minimsg.Plain("hi")); err != nil {
		t.Fatalf("send: %v", err)
	}
	p.Close()
	p.Close() // idempotent
	if err := p.SendComponent(minimsg.Plain("bye")); err == nil {
		t.Fatal("expected error sending to closed session")
	}
}

func TestPlayerSendQueueFull(t *testing.T) {
	t.Parallel()
	p := NewPlayer("s1", "Alice", nil, 1)
	if err := p.SendComponent(minimsg.Plain("a")); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := p.SendComponent(minimsg.Plain("b")); err == nil {
		t.Fatal("expected queue-full error")
	}
	// drain keeps order
	got := <-p.Outbound()
	if string(got) != `{"text":"a"}` {
		t.Fatalf("outbound = %s", got)
	}
}
