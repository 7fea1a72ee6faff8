package ease

import "testing"

// TestProtocolTransitionOrder verifies the success path edge by edge.
func TestProtocolTransitionOrder(t *testing.T) {
	d := &Driver{state: StateDisconnected}
	for _, to := range []State{
		StateLaunching,
		StateGLLLoaded,
		StateConfigLoaded,
		StateParametersSet,
		StateExportingGrid,
		StateExportingSensitivity,
		StateExportingMaxSPL,
		StateArchiving,
		StateClosed,
	} {
		if err := d.transition(to); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
}

// TestProtocolSkipsOptionalConfigState verifies the no-config shortcut.
func TestProtocolSkipsOptionalConfigState(t *testing.T) {
	if !isValidTransition(StateGLLLoaded, StateParametersSet) {
		t.Fatal("gll-loaded should feed parameters directly without a config")
	}
}

// TestProtocolRejectsOutOfOrderEdges verifies skipping steps is a bug.
func TestProtocolRejectsOutOfOrderEdges(t *testing.T) {
	d := &Driver{state: StateLaunching}
	if err := d.transition(StateExportingGrid); err == nil {
		t.Fatal("expected invalid transition error")
	}
	if isValidTransition(StateDisconnected, StateFailed) {
		t.Fatal("disconnected driver has nothing to fail")
	}
}

// TestProtocolReusableAfterTerminalStates verifies the driver can start the
// next job from closed or failed.
func TestProtocolReusableAfterTerminalStates(t *testing.T) {
	for _, from := range []State{StateClosed, StateFailed} {
		if !isValidTransition(from, StateLaunching) {
			t.Fatalf("%s should allow a new launch", from)
		}
	}
}

// TestEscapeKeys checks the keystroke-syntax collision escaping.
func TestEscapeKeys(t *testing.T) {
	if got := EscapeKeys(`C:\gll\JBL 4+2.gll`); got != `C:\gll\JBL 4{+}2.gll` {
		t.Fatalf("escaped = %q", got)
	}
	if got := EscapeKeys("plain.gll"); got != "plain.gll" {
		t.Fatalf("escaped = %q", got)
	}
}
