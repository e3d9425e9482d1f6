// Copyright 2024 Google Inc. All Rights Reserved.
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

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_ArgsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"too many args", []string{"driver", "1234", "extra"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rootCmd.SetArgs(tc.args)
			err := rootCmd.Execute()
			assert.Error(t, err)
		})
	}
}

func TestRootCmd_UnknownDriverReturnsError(t *testing.T) {
	require.NoError(t, bindErr)
	rootCmd.SetArgs([]string{"no-such-driver"})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-driver")
}

func TestRootCmd_InvalidPortReturnsError(t *testing.T) {
	rootCmd.SetArgs([]string{"no-such-driver", "not-a-port"})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-port")
}

func TestKnownDrivers_EmptyWhenNoneRegistered(t *testing.T) {
	// No driver is registered in this binary (the core never implements a
	// concrete file system), so the list is empty rather than panicking.
	assert.Equal(t, "", knownDrivers())
}
