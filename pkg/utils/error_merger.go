// Package utils holds small concurrency helpers shared by the commands.
package utils //nolint:revive // var-naming: utils is an acceptable package name for shared utilities

import "sync"

// MergeErrorChans fans the given channels into one. Nil errors are dropped.
// The result is closed once every input channel has been closed, so ranging
// over it waits for all producers to finish.
func MergeErrorChans(channels ...chan error) chan error {
	out := make(chan error)
	var wg sync.WaitGroup

	wg.Add(len(channels))
	for _, ch := range channels {
		go func() {
			defer wg.Done()
			for err := range ch {
				if err != nil {
					out <- err
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
