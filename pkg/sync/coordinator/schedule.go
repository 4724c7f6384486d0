/* Copyright 2025 Parishkeep Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package coordinator

import (
	"context"

	"github.com/parishkeep/parishkeep/pkg/sync/entity"
	"github.com/parishkeep/parishkeep/pkg/sync/localstore"
	"github.com/parishkeep/parishkeep/pkg/sync/remote"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

// Trigger requests a sync cycle from a running scheduler. It never blocks;
// a cycle already requested absorbs further triggers.
func (c *Coordinator) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Run drives periodic sync cycles on the given cron schedule, serves
// on-demand triggers, and applies the remote change feed, until the context
// is cancelled. Cycle failures are logged through events; they do not stop
// the scheduler.
func (c *Coordinator) Run(ctx context.Context, schedule string) error {
	c.cron = cron.New()
	if err := c.cron.AddFunc(schedule, c.Trigger); err != nil {
		return errors.Wrap(err, "adding sync schedule")
	}
	c.cron.Start()
	defer c.cron.Stop()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- c.watch(ctx)
	}()

	// one cycle up front so a daemon starting offline-edited catches up
	// without waiting out the schedule
	c.Trigger()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-watchErr:
			if err != nil && ctx.Err() == nil {
				return errors.Wrap(err, "watching change feed")
			}
		case <-c.trigger:
			if err := c.Sync(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// watch consumes the remote change feed from the last applied sequence and
// folds each change into the local store
func (c *Coordinator) watch(ctx context.Context) error {
	seq, err := c.store.LastChangeSeq()
	if err != nil {
		return err
	}

	ch, err := c.remote.Watch(ctx, seq)
	if err != nil {
		return err
	}

	for change := range ch {
		if err := c.applyChange(change); err != nil {
			return err
		}
	}

	return nil
}

// applyChange adopts a remote change when the local record has no unpushed
// work. Records with queued mutations are left to the next cycle, which is
// triggered so the conflict surfaces promptly.
func (c *Coordinator) applyChange(change remote.Change) error {
	unlock := c.locks.lock(change.Document.ID)
	defer unlock()

	rec, err := c.store.Get(change.Document.ID)
	switch {
	case err == localstore.ErrNotFound:
		if err := c.adopt(change.Document); err != nil {
			return err
		}
	case err != nil:
		return err
	case rec.Status == entity.StatusSynced:
		if rec.LastUpdatedServer != change.Document.ServerTimestamp {
			if err := c.adopt(change.Document); err != nil {
				return err
			}
		}
	default:
		c.Trigger()
	}

	return c.store.SetLastChangeSeq(change.Seq)
}
