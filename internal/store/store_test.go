package store

import "testing"

func TestSnapshotDefaults(t *testing.T) {
	st := New()
	got := st.Snapshot()
	if got.CurrentSlide != 1 || got.IsPresenting || got.IsSpeaking {
		t.Fatalf("unexpected initial state %+v", got)
	}
}

func TestSetCurrentSlideFloorsAtOne(t *testing.T) {
	st := New()
	st.SetCurrentSlide(-3)
	if got := st.Snapshot().CurrentSlide; got != 1 {
		t.Fatalf("expected slide 1, got %d", got)
	}
	st.SetCurrentSlide(7)
	if got := st.Snapshot().CurrentSlide; got != 7 {
		t.Fatalf("expected slide 7, got %d", got)
	}
}

func TestReset(t *testing.T) {
	st := New()
	st.SetCurrentSlide(5)
	st.SetPresenting(true)
	st.SetSpeaking(true)
	st.Reset()
	got := st.Snapshot()
	if got.CurrentSlide != 1 || got.IsPresenting || got.IsSpeaking {
		t.Fatalf("reset left state %+v", got)
	}
}

func TestEventLogTruncation(t *testing.T) {
	st := New()
	for i := 0; i < 250; i++ {
		st.AppendEvent("tick", nil)
	}
	events := st.ListEvents()
	if len(events) > 200 {
		t.Fatalf("event log grew past cap: %d", len(events))
	}
	last := events[len(events)-1]
	if last.Type != "events_truncated" {
		t.Fatalf("expected truncation marker, got %q", last.Type)
	}
}
