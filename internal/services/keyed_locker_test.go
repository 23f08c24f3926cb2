package services

import (
	"sync"
	"testing"
)

func TestKeyedLockerSerializesSameKey(t *testing.T) {
	l := NewKeyedLocker()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("tpl#0")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
	if l.Len() != 0 {
		t.Errorf("entries = %d, want 0", l.Len())
	}
}

func TestKeyedLockerIndependentKeys(t *testing.T) {
	l := NewKeyedLocker()
	unlockA := l.Lock(occurrenceKey("tpl", 0))
	done := make(chan struct{})
	go func() {
		unlock := l.Lock(occurrenceKey("tpl", 1))
		unlock()
		close(done)
	}()
	<-done
	if l.Len() != 1 {
		t.Errorf("entries = %d, want 1", l.Len())
	}
	unlockA()
	if l.Len() != 0 {
		t.Errorf("entries = %d, want 0", l.Len())
	}
}

func TestOccurrenceKey(t *testing.T) {
	if got := occurrenceKey("abc", 12); got != "abc#12" {
		t.Errorf("key = %q", got)
	}
}
