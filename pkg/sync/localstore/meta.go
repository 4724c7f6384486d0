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

package localstore

import (
	"github.com/parishkeep/parishkeep/pkg/database"
	"github.com/pkg/errors"
)

const systemLastChangeSeq = "last_change_seq"

// LastChangeSeq returns the highest change-feed sequence number applied so
// far, or zero if none was recorded
func (s *Store) LastChangeSeq() (int64, error) {
	var seq int64
	if err := database.GetSystem(s.db, systemLastChangeSeq, &seq); err != nil {
		return 0, errors.Wrap(err, "getting last change seq")
	}

	return seq, nil
}

// SetLastChangeSeq records the highest change-feed sequence number applied
func (s *Store) SetLastChangeSeq(seq int64) error {
	if err := database.UpdateSystem(s.db, systemLastChangeSeq, seq); err != nil {
		return errors.Wrap(err, "updating last change seq")
	}

	return nil
}
