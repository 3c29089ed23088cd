package session

import (
	"encoding/json"
	"testing"

	"brainvoice/internal/realtime"
)

func knownSet(names ...string) func(string) bool {
	set := make(map[string]bool)
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func responseWith(calls ...realtime.FunctionCall) realtime.ResponseDone {
	ev := realtime.ResponseDone{}
	for _, c := range calls {
		if c.Arguments == nil {
			c.Arguments = json.RawMessage("{}")
		}
		ev.Outputs = append(ev.Outputs, c)
	}
	return ev
}

func TestReduceCreatedFromIdle(t *testing.T) {
	s, actions := Reduce(State{}, realtime.SessionCreated{}, knownSet())
	if s.Phase != PhaseAwaitingRegistration {
		t.Fatalf("expected awaiting_registration, got %s", s.Phase)
	}
	if len(actions) != 1 || actions[0].Kind != ActionRegister {
		t.Fatalf("expected one register action, got %+v", actions)
	}
}

func TestReduceCreatedWhenRegistered(t *testing.T) {
	s := markRegistered(State{Phase: PhaseAwaitingRegistration})
	next, actions := Reduce(s, realtime.SessionCreated{}, knownSet())
	if len(actions) != 0 {
		t.Fatalf("expected no actions, got %+v", actions)
	}
	if next.Phase != PhaseActive || !next.Registered {
		t.Fatalf("state changed unexpectedly: %+v", next)
	}
}

func TestReduceCreatedRetriesAfterFailedRegistration(t *testing.T) {
	s := State{Phase: PhaseAwaitingRegistration}
	_, actions := Reduce(s, realtime.SessionCreated{}, knownSet())
	if len(actions) != 1 || actions[0].Kind != ActionRegister {
		t.Fatalf("expected a retry, got %+v", actions)
	}
}

func TestReduceResponseDoneWhileIdle(t *testing.T) {
	s, actions := Reduce(State{}, responseWith(realtime.FunctionCall{Name: "a"}), knownSet("a"))
	if len(actions) != 0 {
		t.Fatalf("idle session must not dispatch, got %+v", actions)
	}
	if s.Phase != PhaseIdle {
		t.Fatalf("expected idle, got %s", s.Phase)
	}
}

func TestReduceInvokeAndReject(t *testing.T) {
	s := markRegistered(State{Phase: PhaseAwaitingRegistration})
	ev := responseWith(
		realtime.FunctionCall{CallID: "c1", Name: "known"},
		realtime.FunctionCall{CallID: "c2", Name: "unknown_tool"},
	)
	_, actions := Reduce(s, ev, knownSet("known"))
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}
	if actions[0].Kind != ActionInvoke || actions[0].Call.Name != "known" || actions[0].Call.ID != "c1" {
		t.Fatalf("unexpected first action %+v", actions[0])
	}
	if actions[1].Kind != ActionReject || actions[1].Call.Name != "unknown_tool" {
		t.Fatalf("unexpected second action %+v", actions[1])
	}
}

func TestReduceRejectsNamelessCall(t *testing.T) {
	s := markRegistered(State{Phase: PhaseAwaitingRegistration})
	ev := responseWith(
		realtime.FunctionCall{CallID: "c1", Name: ""},
		realtime.FunctionCall{CallID: "c2", Name: "known"},
	)
	_, actions := Reduce(s, ev, knownSet("known"))
	if len(actions) != 2 || actions[0].Kind != ActionReject || actions[1].Kind != ActionInvoke {
		t.Fatalf("expected reject then invoke, got %+v", actions)
	}
}

func TestReduceSkipsHandledCallIDs(t *testing.T) {
	s := markRegistered(State{Phase: PhaseAwaitingRegistration})
	ev := responseWith(realtime.FunctionCall{CallID: "c1", Name: "known"})

	s1, first := Reduce(s, ev, knownSet("known"))
	_, second := Reduce(s1, ev, knownSet("known"))
	if len(first) != 1 || len(second) != 0 {
		t.Fatalf("expected redelivery to be skipped, got %d then %d", len(first), len(second))
	}
	if s.Handled("c1") {
		t.Fatal("original state must not be mutated")
	}
}

func TestReduceCallsWithoutIDAreNotDeduplicated(t *testing.T) {
	s := markRegistered(State{Phase: PhaseAwaitingRegistration})
	ev := responseWith(realtime.FunctionCall{Name: "known"})
	s, first := Reduce(s, ev, knownSet("known"))
	_, second := Reduce(s, ev, knownSet("known"))
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected both deliveries dispatched, got %d and %d", len(first), len(second))
	}
}

func TestReduceIgnoresOtherEvents(t *testing.T) {
	s := markRegistered(State{Phase: PhaseAwaitingRegistration})
	for _, ev := range []realtime.Event{
		realtime.Unrecognized{EventType: "response.audio.delta"},
		realtime.ServerError{Code: "x"},
		realtime.ResponseDone{Outputs: []realtime.OutputItem{realtime.OtherOutput{ItemType: "message"}}},
	} {
		next, actions := Reduce(s, ev, knownSet())
		if len(actions) != 0 || next.Phase != s.Phase || next.Registered != s.Registered {
			t.Fatalf("%T changed state or produced actions", ev)
		}
	}
}
