package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ludo-technologies/flowstruct/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParallelExecutor(t *testing.T) {
	executor := NewParallelExecutor()

	assert.NotNil(t, executor)
	assert.Positive(t, executor.maxConcurrency)
	assert.Equal(t, DefaultTimeout, executor.timeout)
}

func TestParallelExecutor_Execute_EmptyTasks(t *testing.T) {
	executor := NewParallelExecutor()

	err := executor.Execute(context.Background(), []domain.ExecutableTask{})
	assert.NoError(t, err)
}

func TestParallelExecutor_Execute_MultipleTasks(t *testing.T) {
	executor := NewParallelExecutor()

	var counter int32
	tasks := make([]domain.ExecutableTask, 5)
	for i := range tasks {
		tasks[i] = NewSimpleTask("task", true, func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&counter, 1)
			return nil, nil
		})
	}

	err := executor.Execute(context.Background(), tasks)
	assert.NoError(t, err)
	assert.Equal(t, int32(5), counter)
}

func TestParallelExecutor_Execute_DisabledTasks(t *testing.T) {
	executor := NewParallelExecutor()

	executed := false
	task := NewSimpleTask("disabled-task", false, func(ctx context.Context) (interface{}, error) {
		executed = true
		return nil, nil
	})

	err := executor.Execute(context.Background(), []domain.ExecutableTask{task})
	assert.NoError(t, err)
	assert.False(t, executed, "disabled task should not be executed")
}

func TestParallelExecutor_Execute_CollectsAllErrors(t *testing.T) {
	executor := NewParallelExecutor()

	var ran int32
	boom := errors.New("boom")
	tasks := []domain.ExecutableTask{
		NewSimpleTask("a", true, func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&ran, 1)
			return nil, boom
		}),
		NewSimpleTask("b", true, func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&ran, 1)
			return nil, nil
		}),
		NewSimpleTask("c", true, func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&ran, 1)
			return nil, errors.New("bang")
		}),
	}

	err := executor.Execute(context.Background(), tasks)
	require.Error(t, err)
	assert.Equal(t, int32(3), ran, "a failing task does not stop the others")

	var agg *AggregatedError
	require.ErrorAs(t, err, &agg)
	assert.Len(t, agg.Errors, 2)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "2 tasks failed")
}

func TestParallelExecutor_RespectsConcurrencyLimit(t *testing.T) {
	executor := NewParallelExecutor()
	executor.SetMaxConcurrency(2)

	var current, peak int32
	tasks := make([]domain.ExecutableTask, 8)
	for i := range tasks {
		tasks[i] = NewSimpleTask("slow", true, func(ctx context.Context) (interface{}, error) {
			n := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			return nil, nil
		})
	}

	require.NoError(t, executor.Execute(context.Background(), tasks))
	assert.LessOrEqual(t, peak, int32(2))
}

func TestParallelExecutor_Timeout(t *testing.T) {
	executor := NewParallelExecutor()
	executor.SetTimeout(20 * time.Millisecond)

	task := NewSimpleTask("blocked", true, func(ctx context.Context) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	err := executor.Execute(context.Background(), []domain.ExecutableTask{task})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParallelExecutor_OnTaskDone(t *testing.T) {
	executor := NewParallelExecutor()

	var calls []int
	executor.OnTaskDone(func(done int) { calls = append(calls, done) })

	tasks := make([]domain.ExecutableTask, 3)
	for i := range tasks {
		tasks[i] = NewSimpleTask("t", true, func(ctx context.Context) (interface{}, error) { return nil, nil })
	}
	require.NoError(t, executor.Execute(context.Background(), tasks))
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestSimpleTask(t *testing.T) {
	task := NewSimpleTask("named", true, nil)
	assert.Equal(t, "named", task.Name())
	assert.True(t, task.IsEnabled())

	_, err := task.Execute(context.Background())
	assert.Error(t, err)
}
