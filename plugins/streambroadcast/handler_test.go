package streambroadcast

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"streamcast/internal/minimsg"
	"streamcast/internal/storage"
	"streamcast/pkg/logx"
)

type fakeSource struct {
	id      string
	name    string
	player  bool
	replies []*minimsg.Component
}

func (f *fakeSource) ID() string                     { return f.id }
func (f *fakeSource) Name() string                   { return f.name }
func (f *fakeSource) IsPlayer() bool                 { return f.player }
func (f *fakeSource) HasPermission(node string) bool { return true }
func (f *fakeSource) SendComponent(c *minimsg.Component) error {
	f.replies = append(f.replies, c)
	return nil
}

type fakeRecipient struct {
	name string
	fail bool
	got  []*minimsg.Component
}

func (f *fakeRecipient) Name() string { return f.name }
func (f *fakeRecipient) SendComponent(c *minimsg.Component) error {
	if f.fail {
		return errors.New("connection reset")
	}
	f.got = append(f.got, c)
	return nil
}

type fakeStore struct {
	storage.Store
	entries []storage.BroadcastEntry
}

func (f *fakeStore) AppendBroadcast(ctx context.Context, e storage.BroadcastEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

// newTestPlugin wires a plugin without host, scheduler, or filesystem.
func newTestPlugin(t *testing.T, recipients []Recipient, now *time.Time) *Plugin {
	t.Helper()
	p := New()
	p.log = logx.Nop()
	cfg := defaultConfig()
	p.cfg.Store(&cfg)
	p.online = func() []Recipient { return recipients }
	p.clock = func() time.Time { return *now }
	return p
}

func checkFourLines(t *testing.T, r *fakeRecipient, url string) {
	t.Helper()
	if len(r.got) != 4 {
		t.Fatalf("%s received %d lines, want 4", r.name, len(r.got))
	}
	for _, i := range []int{0, 3} {
		if txt := strings.TrimLeft(r.got[i].PlainText(), " "); txt != "" {
			t.Fatalf("%s line %d not blank: %q", r.name, i, txt)
		}
	}
	if txt := r.got[1].PlainText(); !strings.Contains(txt, "is now live") {
		t.Fatalf("%s announcement = %q", r.name, txt)
	}
	if r.got[2].ClickEvent == nil || r.got[2].ClickEvent.Value != url {
		t.Fatalf("%s link click = %+v", r.name, r.got[2].ClickEvent)
	}
}

func TestHappyPathBroadcast(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	alice := &fakeRecipient{name: "Alice"}
	bob := &fakeRecipient{name: "Bob"}
	carol := &fakeRecipient{name: "Carol"}
	p := newTestPlugin(t, []Recipient{alice, bob, carol}, &now)
	store := &fakeStore{}
	p.deps.Store = store

	src := &fakeSource{id: "sess-alice", name: "Alice", player: true}
	url := "https://twitch.tv/alice"
	if err := p.handleBroadcast(context.Background(), src, []string{url}); err != nil {
		t.Fatalf("handleBroadcast: %v", err)
	}

	for _, r := range []*fakeRecipient{alice, bob, carol} {
		checkFourLines(t, r, url)
	}
	if txt := alice.got[1].PlainText(); !strings.Contains(txt, "☄ Alice is now live") {
		t.Fatalf("announcement = %q", txt)
	}
	if got := p.ledger.Last("sess-alice"); !got.Equal(now) {
		t.Fatalf("ledger = %v, want %v", got, now)
	}
	if len(src.replies) != 0 {
		t.Fatalf("invoker got %d error replies", len(src.replies))
	}
	if len(store.entries) != 1 || store.entries[0].URL != url || store.entries[0].Recipients != 3 {
		t.Fatalf("audit entries = %+v", store.entries)
	}
}

func TestCooldownBlocksSecondBroadcast(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	r := &fakeRecipient{name: "Bob"}
	p := newTestPlugin(t, []Recipient{r}, &now)

	src := &fakeSource{id: "sess-alice", name: "Alice", player: true}
	if err := p.handleBroadcast(context.Background(), src, []string{"https://twitch.tv/alice"}); err != nil {
		t.Fatalf("first broadcast: %v", err)
	}
	first := now

	// Still inside the window.
	now = now.Add(time.Minute)
	if err := p.handleBroadcast(context.Background(), src, []string{"https://youtube.com/@alice"}); err != nil {
		t.Fatalf("second invocation: %v", err)
	}

	if len(src.replies) != 1 || !strings.Contains(src.replies[0].PlainText(), "must wait") {
		t.Fatalf("replies = %+v", src.replies)
	}
	if len(r.got) != 4 {
		t.Fatalf("recipient got %d lines, want the original 4 only", len(r.got))
	}
	if got := p.ledger.Last("sess-alice"); !got.Equal(first) {
		t.Fatalf("ledger moved on blocked invocation: %v", got)
	}

	// Past the window the command works again.
	now = first.Add(defaultCooldown)
	if err := p.handleBroadcast(context.Background(), src, []string{"https://youtube.com/@alice"}); err != nil {
		t.Fatalf("third invocation: %v", err)
	}
	if len(r.got) != 8 {
		t.Fatalf("recipient got %d lines, want 8", len(r.got))
	}
	if got := p.ledger.Last("sess-alice"); !got.Equal(now) {
		t.Fatalf("ledger = %v, want %v", got, now)
	}
}

func TestRejectionsDoNotTouchLedger(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		args      []string
		wantReply string
	}{
		{"whitelist reject", []string{"https://vimeo.com/123"}, "not valid"},
		{"malformed url", []string{"not_a_url"}, "not valid"},
		{"no args", nil, "Incorrect command usage"},
		{"too many args", []string{"https://twitch.tv/a", "extra"}, "Incorrect command usage"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := &fakeRecipient{name: "Carol"}
			p := newTestPlugin(t, []Recipient{r}, &now)
			src := &fakeSource{id: "sess-bob", name: "Bob", player: true}

			if err := p.handleBroadcast(context.Background(), src, tt.args); err != nil {
				t.Fatalf("handleBroadcast: %v", err)
			}
			if len(src.replies) != 1 || !strings.Contains(src.replies[0].PlainText(), tt.wantReply) {
				t.Fatalf("replies = %+v", src.replies)
			}
			if len(r.got) != 0 {
				t.Fatal("broadcast reached recipients")
			}
			if !p.ledger.Last("sess-bob").IsZero() {
				t.Fatal("ledger updated on failed invocation")
			}
		})
	}
}

func TestConsoleGetsInvalidCommand(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	r := &fakeRecipient{name: "Alice"}
	p := newTestPlugin(t, []Recipient{r}, &now)

	console := &fakeSource{id: "console", name: "CONSOLE", player: false}
	if err := p.handleBroadcast(context.Background(), console, []string{"https://twitch.tv/x"}); err != nil {
		t.Fatalf("handleBroadcast: %v", err)
	}
	if len(console.replies) != 1 || !strings.Contains(console.replies[0].PlainText(), "Incorrect command usage") {
		t.Fatalf("replies = %+v", console.replies)
	}
	if len(r.got) != 0 {
		t.Fatal("console invocation broadcast to players")
	}
}

func TestFanOutSurvivesFailingRecipient(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	good1 := &fakeRecipient{name: "Good1"}
	bad := &fakeRecipient{name: "Bad", fail: true}
	good2 := &fakeRecipient{name: "Good2"}
	p := newTestPlugin(t, []Recipient{good1, bad, good2}, &now)

	src := &fakeSource{id: "sess-alice", name: "Alice", player: true}
	url := "https://kick.com/alice"
	if err := p.handleBroadcast(context.Background(), src, []string{url}); err != nil {
		t.Fatalf("handleBroadcast: %v", err)
	}

	checkFourLines(t, good1, url)
	checkFourLines(t, good2, url)
	if len(bad.got) != 0 {
		t.Fatalf("failing recipient recorded %d lines", len(bad.got))
	}
	// The broadcast still counts as successful.
	if p.ledger.Last("sess-alice").IsZero() {
		t.Fatal("ledger not updated")
	}
}

func TestBrokenTemplateReturnsErrorWithoutMarking(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	r := &fakeRecipient{name: "Bob"}
	p := newTestPlugin(t, []Recipient{r}, &now)

	cfg := p.config()
	cfg.Messages.AnnouncementFormat = "<bogus>%s"
	p.cfg.Store(&cfg)

	src := &fakeSource{id: "sess-alice", name: "Alice", player: true}
	if err := p.handleBroadcast(context.Background(), src, []string{"https://twitch.tv/alice"}); err == nil {
		t.Fatal("expected error from broken template")
	}
	if len(r.got) != 0 {
		t.Fatal("lines sent despite parse failure")
	}
	if !p.ledger.Last("sess-alice").IsZero() {
		t.Fatal("ledger marked despite failed invocation")
	}
	if len(src.replies) != 0 {
		t.Fatal("invoker got feedback for an internal error")
	}
}
