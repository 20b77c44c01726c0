package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	name string
	tick uint64
}

func TestLoopRunsControllersInPriorityOrder(t *testing.T) {
	var calls []recordedCall
	record := func(name string) Controller {
		return ControlFunc(func(cc ControlContext) error {
			calls = append(calls, recordedCall{name: name, tick: cc.Tick()})
			return nil
		})
	}
	l := NewLoop()
	l.AddController(PrLvPostProc, record("post"))
	l.AddController(PrLvSense, record("sense"))
	l.AddController(PrLvActuate, record("actuate"))

	l.RunIteration(context.Background())
	l.RunIteration(context.Background())

	require.Equal(t, []recordedCall{
		{"sense", 0},
		{"actuate", 0},
		{"post", 0},
		{"sense", 1},
		{"actuate", 1},
		{"post", 1},
	}, calls)
}

func TestLoopMessagesLiveForOneIteration(t *testing.T) {
	var seen []Message
	l := NewLoop()
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		cc.Messages().AddMessages(cc.Tick(), "keep")
		return nil
	}))
	l.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			if _, ok := mc.CurrentMessage().(uint64); ok {
				mc.MessageTaken()
			}
		}))
		return nil
	}))
	l.AddController(PrLvPostProc, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			seen = append(seen, mc.CurrentMessage())
		}))
		return nil
	}))

	l.RunIteration(context.Background())
	l.RunIteration(context.Background())
	require.Equal(t, []Message{"keep", "keep"}, seen)
}

func TestLoopStopProcessingKeepsRemaining(t *testing.T) {
	var first, second []Message
	l := NewLoop()
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		cc.Messages().AddMessages(1, 2, 3)
		return nil
	}))
	l.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			first = append(first, mc.CurrentMessage())
			mc.MessageTaken()
			mc.StopProcessing()
		}))
		return nil
	}))
	l.AddController(PrLvPostProc, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			second = append(second, mc.CurrentMessage())
		}))
		return nil
	}))
	l.RunIteration(context.Background())
	require.Equal(t, []Message{1}, first)
	require.Equal(t, []Message{2, 3}, second)
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan uint64, 16)
	l := &Loop{Interval: 10 * time.Millisecond}
	l.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		ticks <- cc.Tick()
		return errors.New("ignored")
	}))
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Equal(t, uint64(0), <-ticks)
	require.Equal(t, uint64(1), <-ticks)
	cancel()
	select {
	case err := <-done:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestRunnerWaitAggregatesErrors(t *testing.T) {
	errA := errors.New("a")
	r := NewRunner().Go(
		RunFunc(func(context.Context) error { return errA }),
		NamedRun("canceled", RunFunc(func(context.Context) error { return context.Canceled })),
		RunFunc(func(context.Context) error { return nil }),
	)
	err := r.Wait()
	require.Error(t, err)
	agg, ok := err.(*AggregatedError)
	require.True(t, ok)
	require.Equal(t, []error{errA}, agg.Errors)
}

type countingCloser struct {
	closed int
	ch     chan struct{}
}

func (c *countingCloser) Close() error {
	c.closed++
	if c.ch != nil {
		close(c.ch)
	}
	return nil
}

func TestRunWithContextCloser(t *testing.T) {
	c := &countingCloser{}
	require.NoError(t, RunWithContextCloser(context.Background(), c, func() error { return nil }))
	require.Equal(t, 1, c.closed)

	ctx, cancel := context.WithCancel(context.Background())
	c = &countingCloser{ch: make(chan struct{})}
	cancel()
	err := RunWithContextCloser(ctx, c, func() error {
		<-c.ch
		return errors.New("closed")
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 1, c.closed)
}
