package omnibus

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taskErr(listener string, n int) *TaskError {
	return &TaskError{
		Listener: listener,
		TaskID:   fmt.Sprintf("task-%d", n),
		Event:    n,
		Err:      fmt.Errorf("failure %d", n),
	}
}

func TestFaultLog_Record(t *testing.T) {
	var seen []Fault
	log := NewFaultLog(FaultLogConfig{OnRecord: func(f Fault) { seen = append(seen, f) }})

	f := log.Record(taskErr("a", 1))

	assert.NotEmpty(t, f.ID)
	assert.Equal(t, "a", f.Listener)
	assert.Equal(t, "task-1", f.TaskID)
	assert.Equal(t, "failure 1", f.Message)
	assert.False(t, f.At.IsZero())
	require.Len(t, seen, 1)
	assert.Equal(t, f.ID, seen[0].ID)
}

func TestFaultLog_EvictsOldest(t *testing.T) {
	log := NewFaultLog(FaultLogConfig{MaxSize: 3})
	for i := 1; i <= 5; i++ {
		log.Record(taskErr("a", i))
	}

	assert.Equal(t, 3, log.Count())
	assert.Equal(t, int64(5), log.Total())

	list := log.List(0)
	require.Len(t, list, 3)
	assert.Equal(t, "task-3", list[0].TaskID)
	assert.Equal(t, "task-5", list[2].TaskID)

	latest := log.List(2)
	require.Len(t, latest, 2)
	assert.Equal(t, "task-4", latest[0].TaskID)
}

func TestFaultLog_ByListener(t *testing.T) {
	log := NewFaultLog(DefaultFaultLogConfig)
	log.Record(taskErr("a", 1))
	log.Record(taskErr("b", 2))
	log.Record(taskErr("a", 3))

	assert.Len(t, log.ByListener("a"), 2)
	assert.Empty(t, log.ByListener("c"))
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, log.CountByListener())
}

func TestFaultLog_Clear(t *testing.T) {
	log := NewFaultLog(FaultLogConfig{MaxSize: -1})
	log.Record(taskErr("a", 1))
	log.Clear()

	assert.Zero(t, log.Count())
	assert.Equal(t, int64(1), log.Total())
}

func TestErrors_Unwrap(t *testing.T) {
	base := errors.New("base")

	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"guard", &GuardError{Err: base}, "guard rejected event: base"},
		{"filter", &FilterError{Err: base}, "filter failed: base"},
		{"spy", &SpyError{Err: base}, "spy failed and was removed: base"},
		{"task", &TaskError{Listener: "l", TaskID: "t", Err: base}, "task t in listener l failed: base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, base)
			assert.EqualError(t, tt.err, tt.msg)
		})
	}

	live := context.Background()
	done, cancel := context.WithCancel(live)
	cancel()
	assert.True(t, isCancellation(live, ErrTaskCanceled))
	assert.False(t, isCancellation(live, context.Canceled))
	assert.True(t, isCancellation(done, context.Canceled))
	assert.False(t, isCancellation(done, base))
}
