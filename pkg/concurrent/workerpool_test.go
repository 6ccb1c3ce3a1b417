// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_Run(t *testing.T) {
	tests := []struct {
		name      string
		functions []func() error
		wantErr   bool
	}{
		{
			name:      "no functions",
			functions: nil,
			wantErr:   false,
		},
		{
			name: "all succeed",
			functions: []func() error{
				func() error { return nil },
				func() error { return nil },
				func() error { return nil },
			},
			wantErr: false,
		},
		{
			name: "one fails",
			functions: []func() error{
				func() error { return nil },
				func() error { return errors.New("boom") },
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wp := NewWorkerPool(2)
			err := wp.Run(context.Background(), tt.functions...)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWorkerPool_RunAll(t *testing.T) {
	var ran atomic.Int32
	wp := NewWorkerPool(3)

	errs := wp.RunAll(context.Background(),
		func() error { ran.Add(1); return nil },
		func() error { ran.Add(1); return errors.New("first") },
		func() error { ran.Add(1); return errors.New("second") },
		func() error { ran.Add(1); return nil },
	)

	assert.Len(t, errs, 2)
	assert.Equal(t, int32(4), ran.Load(), "every function should run even when some fail")
}

func TestNewWorkerPool_NonPositiveCount(t *testing.T) {
	wp := NewWorkerPool(0)
	assert.NotNil(t, wp)
	assert.NoError(t, wp.Run(context.Background(), func() error { return nil }))
}
