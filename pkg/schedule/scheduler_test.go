// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// fakeClock only moves when slept on or advanced
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func newTestScheduler(t *testing.T, clock *fakeClock, opts Options) *Scheduler {
	s, err := Parse("0 * * * * *")
	require.NoError(t, err)
	opts.Now = clock.Now
	opts.Sleep = clock.Sleep
	return New(s, opts)
}

func at(h, m, s int) time.Time {
	return time.Date(2025, 1, 1, h, m, s, 0, time.UTC)
}

func TestSchedulerWaitsForEachFireTime(t *testing.T) {
	clock := &fakeClock{now: at(10, 0, 30)}
	sched := newTestScheduler(t, clock, Options{MaxRuns: 3})

	var runs []time.Time
	err := sched.Run(testContext(t), func(ctx context.Context) error {
		runs = append(runs, clock.Now())
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []time.Time{at(10, 1, 0), at(10, 2, 0), at(10, 3, 0)}, runs)
	assert.Equal(t, []time.Duration{30 * time.Second, time.Minute, time.Minute}, clock.sleeps)
}

func TestSchedulerCatchesUpMissedRuns(t *testing.T) {
	clock := &fakeClock{now: at(10, 0, 30)}
	sched := newTestScheduler(t, clock, Options{MaxRuns: 3})

	var runs []time.Time
	err := sched.Run(testContext(t), func(ctx context.Context) error {
		runs = append(runs, clock.Now())
		clock.Advance(150 * time.Second)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []time.Time{at(10, 1, 0), at(10, 3, 30), at(10, 6, 0)}, runs, "missed fire times run back to back")
	assert.Equal(t, []time.Duration{30 * time.Second}, clock.sleeps)
}

func TestSchedulerSkipsMissedRuns(t *testing.T) {
	clock := &fakeClock{now: at(10, 0, 30)}
	sched := newTestScheduler(t, clock, Options{MaxRuns: 3, SkipMissed: true})

	var runs []time.Time
	err := sched.Run(testContext(t), func(ctx context.Context) error {
		runs = append(runs, clock.Now())
		clock.Advance(150 * time.Second)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []time.Time{at(10, 1, 0), at(10, 4, 0), at(10, 7, 0)}, runs)
	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second, 30 * time.Second}, clock.sleeps)
}

func TestSchedulerStopsOnJobError(t *testing.T) {
	clock := &fakeClock{now: at(10, 0, 30)}
	sched := newTestScheduler(t, clock, Options{})

	calls := 0
	err := sched.Run(testContext(t), func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, calls, "no run after a failure")
}

func TestSchedulerCancelled(t *testing.T) {
	clock := &fakeClock{now: at(10, 0, 30)}
	sched := newTestScheduler(t, clock, Options{})

	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	err := sched.Run(ctx, func(ctx context.Context) error {
		t.Fatal("job should not run")
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSchedulerNeverFires(t *testing.T) {
	s, err := Parse("0 0 0 30 2 *")
	require.NoError(t, err)
	clock := &fakeClock{now: at(10, 0, 0)}

	err = New(s, Options{Now: clock.Now, Sleep: clock.Sleep}).Run(testContext(t), func(ctx context.Context) error {
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no upcoming fire time")
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleep(ctx, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	assert.NoError(t, sleep(context.Background(), time.Millisecond))
}
