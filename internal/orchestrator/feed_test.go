package orchestrator

import (
	"testing"
	"time"
)

func TestFeed_LatestValueOnly(t *testing.T) {
	f := NewFeed()

	// With no reader between sets, only the newest value is observable.
	f.set(State{CurrentTimeMS: 1})
	f.set(State{CurrentTimeMS: 2})
	f.set(State{CurrentTimeMS: 3})

	st, _ := f.Get()
	if st.CurrentTimeMS != 3 {
		t.Errorf("CurrentTimeMS = %d, want 3 (latest value)", st.CurrentTimeMS)
	}
}

func TestFeed_ChangeNotification(t *testing.T) {
	f := NewFeed()

	_, changed := f.Get()
	select {
	case <-changed:
		t.Fatal("changed fired before any set")
	default:
	}

	f.set(State{CurrentTimeMS: 1})

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("changed did not fire after set")
	}

	// A fresh Get hands out a fresh channel for the next change.
	st, changed2 := f.Get()
	if st.CurrentTimeMS != 1 {
		t.Errorf("CurrentTimeMS = %d, want 1", st.CurrentTimeMS)
	}
	select {
	case <-changed2:
		t.Fatal("new changed channel already fired")
	default:
	}
}

func TestFeed_WriterNeverBlocks(t *testing.T) {
	f := NewFeed()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// No reader is draining anything; sets must still complete.
		for i := 0; i < 1000; i++ {
			f.set(State{CurrentTimeMS: int64(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("writer blocked without readers")
	}

	if st := f.State(); st.CurrentTimeMS != 999 {
		t.Errorf("CurrentTimeMS = %d, want 999", st.CurrentTimeMS)
	}
}

func TestFeed_ManyReaders(t *testing.T) {
	f := NewFeed()

	const readers = 8
	got := make(chan int64, readers)
	for i := 0; i < readers; i++ {
		_, changed := f.Get()
		go func(ch <-chan struct{}) {
			<-ch
			st, _ := f.Get()
			got <- st.CurrentTimeMS
		}(changed)
	}

	f.set(State{CurrentTimeMS: 42})

	for i := 0; i < readers; i++ {
		select {
		case v := <-got:
			if v != 42 {
				t.Errorf("reader saw %d, want 42", v)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("reader never woke")
		}
	}
}
