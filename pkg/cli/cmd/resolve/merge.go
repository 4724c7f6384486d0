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

package resolve

import (
	"fmt"
	"strings"

	"github.com/parishkeep/parishkeep/pkg/cli/utils/diff"
)

const (
	localMark   = "<<<<<<< Local"
	dividerMark = "======="
	serverMark  = ">>>>>>> Server"
)

// reportBodyConflict renders the divergence of a text field with conflict
// markers, line by line. Identical inputs are returned as they are.
func reportBodyConflict(local, server string) string {
	if local == server {
		return local
	}

	diffs := diff.Do(local, server)

	var ret strings.Builder

	i := 0
	for i < len(diffs) {
		d := diffs[i]

		switch d.Type {
		case diff.DiffEqual:
			ret.WriteString(d.Text)
			i++
		case diff.DiffDelete:
			var inserted string
			if i+1 < len(diffs) && diffs[i+1].Type == diff.DiffInsert {
				inserted = diffs[i+1].Text
				i += 2
			} else {
				i++
			}
			writeConflictBlocks(&ret, d.Text, inserted)
		default: // diff.DiffInsert
			writeConflictBlocks(&ret, "", d.Text)
			i++
		}
	}

	return ret.String()
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// writeConflictBlocks zips the deleted and inserted lines pairwise, writing
// one marker block per line pair. The shorter side is padded with empty
// lines.
func writeConflictBlocks(w *strings.Builder, deleted, inserted string) {
	localLines := splitLines(deleted)
	serverLines := splitLines(inserted)

	n := len(localLines)
	if len(serverLines) > n {
		n = len(serverLines)
	}

	for i := 0; i < n; i++ {
		var localLine, serverLine string
		if i < len(localLines) {
			localLine = localLines[i]
		}
		if i < len(serverLines) {
			serverLine = serverLines[i]
		}

		fmt.Fprintf(w, "%s\n%s\n%s\n%s\n%s\n", localMark, localLine, dividerMark, serverLine, serverMark)
	}
}
