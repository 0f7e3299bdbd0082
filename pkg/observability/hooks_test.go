package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Codec hooks
	c := NoopCodecHooks{}
	c.OnRegister(1, true)
	c.OnRecord(1)
	c.OnResolve(1, nil)

	// Store hooks
	s := NoopStoreHooks{}
	s.OnPut(ctx, "file", 1024, time.Second, nil)
	s.OnGet(ctx, "file", time.Second, nil)
	s.OnDelete(ctx, "file", time.Second, nil)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/v1/snapshots")
	h.OnResponse(ctx, "GET", "/v1/snapshots", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Codec().(NoopCodecHooks); !ok {
		t.Error("Codec() should return NoopCodecHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customCodec := &testCodecHooks{}
	SetCodecHooks(customCodec)
	if Codec() != CodecHooks(customCodec) {
		t.Error("SetCodecHooks should set custom hooks")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != StoreHooks(customStore) {
		t.Error("SetStoreHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != HTTPHooks(customHTTP) {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Nil registrations are ignored
	SetCodecHooks(nil)
	if Codec() != CodecHooks(customCodec) {
		t.Error("SetCodecHooks(nil) should keep previous hooks")
	}

	// Reset restores noops
	Reset()
	if _, ok := Codec().(NoopCodecHooks); !ok {
		t.Error("Reset() should restore NoopCodecHooks")
	}
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	hooks := &testCodecHooks{}
	SetCodecHooks(hooks)

	Codec().OnRegister(1, true)
	Codec().OnRegister(1, false)
	Codec().OnResolve(1, nil)

	if hooks.registers != 2 {
		t.Errorf("registers = %d, want 2", hooks.registers)
	}
	if hooks.firsts != 1 {
		t.Errorf("firsts = %d, want 1", hooks.firsts)
	}
	if hooks.resolves != 1 {
		t.Errorf("resolves = %d, want 1", hooks.resolves)
	}
}

// testCodecHooks counts received codec events.
type testCodecHooks struct {
	registers int
	firsts    int
	records   int
	resolves  int
}

func (h *testCodecHooks) OnRegister(id uint32, first bool) {
	h.registers++
	if first {
		h.firsts++
	}
}
func (h *testCodecHooks) OnRecord(uint32)         { h.records++ }
func (h *testCodecHooks) OnResolve(uint32, error) { h.resolves++ }

// testStoreHooks is a minimal StoreHooks implementation.
type testStoreHooks struct{}

func (testStoreHooks) OnPut(context.Context, string, int, time.Duration, error) {}
func (testStoreHooks) OnGet(context.Context, string, time.Duration, error)      {}
func (testStoreHooks) OnDelete(context.Context, string, time.Duration, error)   {}

// testHTTPHooks is a minimal HTTPHooks implementation.
type testHTTPHooks struct{}

func (testHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (testHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
