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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/parishkeep/parishkeep/pkg/cli/log"
	"github.com/parishkeep/parishkeep/pkg/sync/entity"
)

// StatusBadge returns a colored one-word badge for a sync status
func StatusBadge(status entity.SyncStatus) string {
	switch status {
	case entity.StatusSynced:
		return log.ColorGreen.Sprint("synced")
	case entity.StatusPending:
		return log.ColorYellow.Sprint("pending")
	case entity.StatusSyncing:
		return log.ColorBlue.Sprint("syncing")
	case entity.StatusConflicted:
		return log.ColorRed.Sprint("conflicted")
	case entity.StatusError:
		return log.ColorRed.Sprint("error")
	}

	return string(status)
}

func formatTS(ts int64) string {
	if ts == 0 {
		return "never"
	}

	return time.UnixMilli(ts).Format("Jan 2, 2006 3:04pm (MST)")
}

// RecordLine prints a one-line summary of a record for a listing
func RecordLine(rec entity.Record) {
	log.Plainf("%s  %s  %s  v%d\n", rec.ID, rec.Payload.Kind(), StatusBadge(rec.Status), rec.Version)
}

// RecordInfo prints the details of a record
func RecordInfo(rec entity.Record) {
	log.Infof("record id: %s\n", rec.ID)
	log.Infof("kind: %s\n", rec.Payload.Kind())
	log.Infof("version: %d\n", rec.Version)
	log.Infof("status: %s\n", StatusBadge(rec.Status))
	log.Infof("edited at: %s\n", formatTS(rec.LocalUpdatedAt))
	log.Infof("last synced at: %s\n", formatTS(rec.LastUpdatedServer))

	fmt.Printf("\n------------------------fields------------------------\n")
	fields := rec.Payload.ConflictFields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s: %v\n", name, fields[name])
	}
	fmt.Printf("-------------------------------------------------------\n")

	if rec.Conflict != nil {
		ConflictInfo(*rec.Conflict)
	}
}

// ConflictInfo prints the detail of a conflict
func ConflictInfo(cd entity.ConflictData) {
	fmt.Fprintf(color.Output, "\n%s\n", log.ColorRed.Sprint("----------------------conflict-------------------------"))
	log.Infof("remote version: %d\n", cd.RemoteVersion)
	log.Infof("remote updated at: %s\n", formatTS(cd.RemoteTimestamp))
	log.Infof("detected at: %s\n", formatTS(cd.DetectedAt))

	for _, d := range cd.Diff {
		marker := ""
		if d.Critical {
			marker = log.ColorRed.Sprint(" (critical)")
		}
		log.Plainf("%s%s: local %v, remote %v\n", d.Name, marker, d.Local, d.Remote)
	}
	fmt.Printf("-------------------------------------------------------\n")
}
