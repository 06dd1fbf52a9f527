package worker

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolExecutesJobs(t *testing.T) {
	pool := NewPool(2, 10, 0)
	pool.Start()

	var executed atomic.Int64
	done := make(chan struct{}, 5)

	for i := 0; i < 5; i++ {
		err := pool.Submit(Job{
			ID: "job",
			Task: func() error {
				executed.Add(1)
				return nil
			},
			OnDone: func(error) { done <- struct{}{} },
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("задачи не выполнились за отведённое время")
		}
	}

	if executed.Load() != 5 {
		t.Fatalf("выполнено %d задач, ожидалось 5", executed.Load())
	}

	if err := pool.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestPoolRetries(t *testing.T) {
	pool := NewPool(1, 10, 2)
	pool.Start()
	defer pool.Shutdown(time.Second)

	var attempts atomic.Int64
	done := make(chan error, 1)

	err := pool.Submit(Job{
		ID: "flaky",
		Task: func() error {
			if attempts.Add(1) < 3 {
				return errors.New("временный сбой")
			}
			return nil
		},
		RetryOn: func(error) bool { return true },
		OnDone:  func(err error) { done <- err },
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("задача провалилась после повторов: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("задача не завершилась")
	}

	if attempts.Load() != 3 {
		t.Fatalf("попыток %d, ожидалось 3", attempts.Load())
	}
}

func TestPoolQueueFull(t *testing.T) {
	// Пул без воркеров: очередь на одну задачу переполняется второй.
	pool := NewPool(0, 1, 0)
	pool.Start()

	if err := pool.Submit(Job{ID: "first", Task: func() error { return nil }}); err != nil {
		t.Fatalf("Submit first: %v", err)
	}
	if err := pool.Submit(Job{ID: "second", Task: func() error { return nil }}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("ожидался ErrQueueFull, получено %v", err)
	}
}
