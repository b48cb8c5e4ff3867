package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func collect(t *testing.T, merged chan error) []string {
	t.Helper()
	var got []string
	timeout := time.After(time.Second)
	for {
		select {
		case err, ok := <-merged:
			if !ok {
				return got
			}
			got = append(got, err.Error())
		case <-timeout:
			t.Fatal("timeout waiting for merged channel to close")
			return nil
		}
	}
}

func TestMergeErrorChans(t *testing.T) {
	ch1 := make(chan error, 2)
	ch2 := make(chan error, 1)
	merged := MergeErrorChans(ch1, ch2)

	ch1 <- errors.New("error 1")
	ch1 <- nil
	ch2 <- errors.New("error 2")
	close(ch1)
	close(ch2)

	assert.ElementsMatch(t, []string{"error 1", "error 2"}, collect(t, merged))
}

func TestMergeErrorChans_ClosesWhenInputsClose(t *testing.T) {
	ch := make(chan error)
	merged := MergeErrorChans(ch)
	close(ch)
	assert.Empty(t, collect(t, merged))

	assert.Empty(t, collect(t, MergeErrorChans()))
}
