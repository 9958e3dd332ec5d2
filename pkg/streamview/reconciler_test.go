package streamview

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(trailingStatus Status) []Message {
	return []Message{
		{ID: "msg_u1", Role: "user", Content: "hello", Status: StatusCompleted},
		{ID: "msg_a1", Role: "assistant", Status: trailingStatus},
	}
}

func TestRender_BufferReplacesPendingTrailing(t *testing.T) {
	view := NewView("thr_1")
	view.SetMessages(snapshot(StatusWaiting))

	view.ApplyEvent(Event{Type: EventTextDelta, Delta: "Hel"})
	view.ApplyEvent(Event{Type: EventTextDelta, Delta: "lo!"})
	view.ApplyEvent(Event{Type: EventReasoningDelta, Delta: "thinking"})

	out := view.Render()
	require.Len(t, out, 2)
	assert.Equal(t, "Hello!", out[1].Content)
	assert.Equal(t, "thinking", out[1].Reasoning)
	assert.Equal(t, StatusStreaming, out[1].Status)
	// authoritative prefix untouched
	assert.Equal(t, "hello", out[0].Content)
}

func TestRender_TerminalTrailingDiscardsBuffer(t *testing.T) {
	view := NewView("thr_1")
	view.SetMessages(snapshot(StatusWaiting))
	view.ApplyEvent(Event{Type: EventTextDelta, Delta: "partial"})

	// Store refresh lands with the full final content.
	final := snapshot(StatusCompleted)
	final[1].Content = "full final answer"
	view.SetMessages(final)

	out := view.Render()
	require.Len(t, out, 2)
	assert.Equal(t, "full final answer", out[1].Content)
	assert.Equal(t, StatusCompleted, out[1].Status)

	// Late frames from the not-yet-closed transport must not flicker the
	// view back to partial content.
	view.ApplyEvent(Event{Type: EventTextDelta, Delta: " trailing junk"})
	out = view.Render()
	assert.Equal(t, "full final answer", out[1].Content)
}

func TestRender_BufferBeforeAuthoritativeSnapshot(t *testing.T) {
	view := NewView("thr_1")

	// Deltas arrive before the store has been read at all.
	view.ApplyEvent(Event{Type: EventTextDelta, Delta: "early"})
	assert.Empty(t, view.Render())

	view.SetMessages(snapshot(StatusStreaming))
	out := view.Render()
	require.Len(t, out, 2)
	assert.Equal(t, "early", out[1].Content)
}

func TestRender_DoneEventMarksBufferTerminal(t *testing.T) {
	view := NewView("thr_1")
	view.SetMessages(snapshot(StatusWaiting))

	view.ApplyEvent(Event{Type: EventTextDelta, Delta: "answer"})
	view.ApplyEvent(Event{Type: EventDone, MessageID: "msg_a1", Status: string(StatusCompleted)})

	out := view.Render()
	require.Len(t, out, 2)
	assert.Equal(t, "answer", out[1].Content)
	assert.Equal(t, StatusCompleted, out[1].Status)
}

func TestRender_ErrorEventCarriesErrorText(t *testing.T) {
	view := NewView("thr_1")
	view.SetMessages(snapshot(StatusStreaming))

	view.ApplyEvent(Event{Type: EventTextDelta, Delta: "part"})
	view.ApplyEvent(Event{Type: EventError, Status: string(StatusError), Error: "An error occurred"})

	out := view.Render()
	assert.Equal(t, StatusError, out[1].Status)
	assert.Equal(t, "part", out[1].Content)
	assert.Equal(t, "An error occurred", out[1].Error)
}

func TestSpeculate_ConfirmAndRollback(t *testing.T) {
	view := NewView("thr_1")
	view.SetMessages([]Message{
		{ID: "msg_u1", Role: "user", Content: "hi", Status: StatusCompleted},
		{ID: "msg_a1", Role: "assistant", Content: "hey", Status: StatusCompleted},
	})

	view.Speculate("mut-1",
		Message{ID: "tmp_u2", Role: "user", Content: "next?", Status: StatusCompleted},
		Message{ID: "tmp_a2", Role: "assistant", Status: StatusWaiting},
	)

	out := view.Render()
	require.Len(t, out, 4)
	assert.Equal(t, "tmp_u2", out[2].ID)
	assert.Equal(t, StatusWaiting, out[3].Status)

	// Failure: speculative rows disappear, authoritative list untouched.
	view.Rollback("mut-1")
	assert.Len(t, view.Render(), 2)

	// Success: the confirmed snapshot supersedes the overlay.
	view.Speculate("mut-2", Message{ID: "tmp_u3", Role: "user", Content: "again", Status: StatusCompleted})
	view.Confirm("mut-2")
	view.SetMessages([]Message{
		{ID: "msg_u1", Role: "user", Content: "hi", Status: StatusCompleted},
		{ID: "msg_a1", Role: "assistant", Content: "hey", Status: StatusCompleted},
		{ID: "msg_u3", Role: "user", Content: "again", Status: StatusCompleted},
		{ID: "msg_a3", Role: "assistant", Status: StatusWaiting},
	})

	out = view.Render()
	require.Len(t, out, 4)
	assert.Equal(t, "msg_u3", out[2].ID)
}

func TestReset_AllowsFreshGeneration(t *testing.T) {
	view := NewView("thr_1")
	view.SetMessages(snapshot(StatusWaiting))
	view.ApplyEvent(Event{Type: EventTextDelta, Delta: "first"})
	view.SetMessages(snapshot(StatusCompleted))

	// Next prompt: new pending pair plus a fresh buffer.
	view.Reset()
	next := append(snapshot(StatusCompleted),
		Message{ID: "msg_u2", Role: "user", Content: "more", Status: StatusCompleted},
		Message{ID: "msg_a2", Role: "assistant", Status: StatusWaiting},
	)
	view.SetMessages(next)
	view.ApplyEvent(Event{Type: EventTextDelta, Delta: "second"})

	out := view.Render()
	require.Len(t, out, 4)
	assert.Equal(t, "second", out[3].Content)
}

func TestView_ConcurrentFeeds(t *testing.T) {
	view := NewView("thr_1")
	view.SetMessages(snapshot(StatusWaiting))

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			view.ApplyEvent(Event{Type: EventTextDelta, Delta: "x"})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			view.SetMessages(snapshot(StatusStreaming))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			view.Speculate(fmt.Sprintf("mut-%d", i), Message{ID: "tmp", Role: "user", Status: StatusCompleted})
			view.Rollback(fmt.Sprintf("mut-%d", i))
			view.Render()
		}
	}()
	wg.Wait()

	out := view.Render()
	require.Len(t, out, 2)
	assert.Equal(t, StatusStreaming, out[1].Status)
}
