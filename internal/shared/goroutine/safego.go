// Package goroutine provides utilities for safely launching goroutines with panic recovery.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/campusportal/admission/internal/shared/logger"
)

// Go runs fn in a goroutine and delivers its result on the returned channel.
// A panic is logged with its stack and delivered as an error instead of
// crashing the process. The channel is buffered and receives exactly once.
func Go(log logger.Interface, name string, fn func() error) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("goroutine panicked",
					"goroutine", name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
				done <- fmt.Errorf("goroutine %s panicked: %v", name, r)
			}
		}()
		done <- fn()
	}()
	return done
}
