package taskrun

import (
	"testing"
	"time"

	"github.com/tthsd/engine/internal/model"
)

func TestChunkQueue_FIFOOrder(t *testing.T) {
	q := newChunkQueue()
	q.PushMultiple([]model.Chunk{
		{Start: 0, End: 10},
		{Start: 10, End: 20},
	})
	q.Push(model.Chunk{Start: 20, End: 30})

	var got []int64
	for i := 0; i < 3; i++ {
		c, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop() returned !ok early")
		}
		got = append(got, c.Start)
	}
	want := []int64{0, 10, 20}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("order[%d] = %d, want %d", i, got[i], w)
		}
	}
}

func TestChunkQueue_PopBlocksUntilCloseOrPush(t *testing.T) {
	q := newChunkQueue()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	select {
	case <-done:
		t.Fatal("Pop returned before any chunk was pushed or queue closed")
	case <-time.After(50 * time.Millisecond):
	}

	q.Close()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected Pop to return ok=false after Close with no chunks")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Close")
	}
}
