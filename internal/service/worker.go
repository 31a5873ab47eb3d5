package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vanshika/finadvisor/backend/internal/domain"
)

// TaskError accumulates multiple errors produced during bulk registration.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d errors:", len(e.Errors))
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Registrar is the part of AccountService the bulk loader depends on.
type Registrar interface {
	Register(ctx context.Context, in RegisterInput) (Session, error)
}

// BulkReport summarises a bulk registration run.
type BulkReport struct {
	Created    int
	Duplicates int
}

// BulkRegistrar registers many accounts concurrently with a fixed worker pool.
type BulkRegistrar struct {
	accounts Registrar
	workers  int
}

// NewBulkRegistrar creates a BulkRegistrar with the provided concurrency.
func NewBulkRegistrar(accounts Registrar, workers int) *BulkRegistrar {
	if workers <= 0 {
		workers = 4
	}
	return &BulkRegistrar{
		accounts: accounts,
		workers:  workers,
	}
}

// Register processes inputs concurrently. Already registered emails are
// counted as duplicates rather than failures.
func (b *BulkRegistrar) Register(ctx context.Context, inputs []RegisterInput) (BulkReport, error) {
	var (
		mu     sync.Mutex
		report BulkReport
	)
	err := b.run(ctx, len(inputs), func(idx int) error {
		_, err := b.accounts.Register(ctx, inputs[idx])
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			report.Created++
			return nil
		case errors.Is(err, domain.ErrConflict):
			report.Duplicates++
			return nil
		default:
			return fmt.Errorf("register %s: %w", inputs[idx].Email, err)
		}
	})
	return report, err
}

func (b *BulkRegistrar) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				errCh <- err
			}
		}
	}

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}

	var taskErr TaskError
	for err := range errCh {
		taskErr.append(err)
	}
	return taskErr.asError()
}
