package transport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/synheart/consciousness-bridge/internal/models"
	"go.uber.org/zap/zaptest"
)

func moodState(i int) models.State {
	return models.State{MoodState: fmt.Sprintf("mood-%d", i), BondStrength: float64(i)}
}

func drain(ch <-chan models.State) []models.State {
	var got []models.State
	for s := range ch {
		got = append(got, s)
	}
	return got
}

func TestDispatcher_FanOut(t *testing.T) {
	for _, subscribers := range []int{1, 3} {
		t.Run(fmt.Sprintf("%d subscribers", subscribers), func(t *testing.T) {
			source := make(chan models.State, 10)
			d := NewDispatcher(source, 10, zaptest.NewLogger(t))

			subs := make([]<-chan models.State, subscribers)
			for i := range subs {
				subs[i] = d.Subscribe()
			}
			if d.Subscribers() != subscribers {
				t.Fatalf("expected %d subscribers, got %d", subscribers, d.Subscribers())
			}

			for i := 0; i < 5; i++ {
				source <- moodState(i)
			}
			close(source)
			d.Run(context.Background())

			for n, sub := range subs {
				got := drain(sub)
				if len(got) != 5 {
					t.Fatalf("subscriber %d: expected 5 states, got %d", n, len(got))
				}
				for i, s := range got {
					if s.MoodState != moodState(i).MoodState {
						t.Errorf("subscriber %d: state %d out of order: %s", n, i, s.MoodState)
					}
				}
			}
			if d.Dropped() != 0 {
				t.Errorf("expected no drops, got %d", d.Dropped())
			}
		})
	}
}

func TestDispatcher_DropsOnFullBuffer(t *testing.T) {
	source := make(chan models.State, 20)
	d := NewDispatcher(source, 2, nil)
	stalled := d.Subscribe()

	for i := 0; i < 20; i++ {
		source <- moodState(i)
	}
	close(source)
	d.Run(context.Background())

	got := drain(stalled)
	if len(got) != 2 {
		t.Errorf("expected the first 2 states to fit the buffer, got %d", len(got))
	}
	if d.Dropped() != 18 {
		t.Errorf("expected 18 drops, got %d", d.Dropped())
	}
}

func TestDispatcher_SlowSubscriberDoesNotBlockFast(t *testing.T) {
	source := make(chan models.State)
	d := NewDispatcher(source, 1, nil)
	fast := d.Subscribe()
	_ = d.Subscribe() // never read

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	for i := 0; i < 10; i++ {
		select {
		case source <- moodState(i):
		case <-time.After(time.Second):
			t.Fatalf("dispatcher blocked at state %d", i)
		}
		select {
		case s := <-fast:
			if s.MoodState != moodState(i).MoodState {
				t.Errorf("expected %s, got %s", moodState(i).MoodState, s.MoodState)
			}
		case <-time.After(time.Second):
			t.Fatalf("fast subscriber starved at state %d", i)
		}
	}

	if d.Dropped() == 0 {
		t.Error("expected drops for the stalled subscriber")
	}
}

func TestDispatcher_ContextCancel(t *testing.T) {
	source := make(chan models.State)
	d := NewDispatcher(source, 1, nil)
	sub := d.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if _, ok := <-sub; ok {
		t.Error("subscriber channel should be closed")
	}
}
