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
	"testing"

	"github.com/parishkeep/parishkeep/pkg/assert"
)

func TestReportBodyConflict(t *testing.T) {
	testCases := []struct {
		local    string
		server   string
		expected string
	}{
		{
			local:    "\n",
			server:   "\n",
			expected: "\n",
		},
		{
			local:    "",
			server:   "",
			expected: "",
		},
		{
			local:    "counted after communion",
			server:   "counted after communion",
			expected: "counted after communion",
		},
		{
			local:    "counted after communion\ntwo ushers present",
			server:   "counted after communion\ntwo ushers present",
			expected: "counted after communion\ntwo ushers present",
		},
		{
			local:  "count-local",
			server: "count-server",
			expected: `<<<<<<< Local
count-local
=======
count-server
>>>>>>> Server
`,
		},
		{
			local:  "counted twice\n",
			server: "counted once\n",
			expected: `<<<<<<< Local
counted twice
=======
counted once
>>>>>>> Server
`,
		},
		{
			local:  "pending recount\n",
			server: "\n",
			expected: `<<<<<<< Local
pending recount
=======

>>>>>>> Server
`,
		},
		{
			local:  "\n",
			server: "pending recount\n",
			expected: `<<<<<<< Local

=======
pending recount
>>>>>>> Server
`,
		},
		{
			local:  "morning service\n\nrecount pending\nsigned by warden\n",
			server: "morning service\n\ncount final\nsigned by warden\n",
			expected: `morning service

<<<<<<< Local
recount pending
=======
count final
>>>>>>> Server
signed by warden
`,
		},
		{
			local:  "morning service\n\nrecount pending\nsigned by warden\n\nloose cash counted\nbanked Monday\n",
			server: "morning service\n\ncount final\nsigned by warden\n\nloose cash counted\nbanked Tuesday\n",
			expected: `morning service

<<<<<<< Local
recount pending
=======
count final
>>>>>>> Server
signed by warden

loose cash counted
<<<<<<< Local
banked Monday
=======
banked Tuesday
>>>>>>> Server
`,
		},
		{
			local:  "morning service\nrecount\nsigned\nbanked\n",
			server: "morning service\nrecounted\nsigned off\nbanked\n",
			expected: `morning service
<<<<<<< Local
recount
=======
recounted
>>>>>>> Server
<<<<<<< Local
signed
=======
signed off
>>>>>>> Server
banked
`,
		},
	}

	for idx, tc := range testCases {
		result := reportBodyConflict(tc.local, tc.server)

		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			assert.DeepEqual(t, result, tc.expected, "result mismatch")
		})
	}
}
