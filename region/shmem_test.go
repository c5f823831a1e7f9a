// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package region

import (
	"fmt"
	"os"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func shmName(t *testing.T, tag string) string {
	t.Helper()
	return fmt.Sprintf("region-test-%s-%d", tag, os.Getpid())
}

func TestShmemLifecycle(t *testing.T) {
	name := shmName(t, "lifecycle")

	owner, err := Create(name, 256)
	require.NoError(t, err)
	require.Equal(t, 256, owner.Len())
	require.True(t, owner.Owner())
	require.Equal(t, name, owner.Name())

	client, err := Attach(name, 256, true)
	require.NoError(t, err)
	require.False(t, client.Owner())

	// Bytes written through one mapping are visible through the other.
	ownerBytes := unsafe.Slice((*byte)(owner.Ptr()), owner.Len())
	clientBytes := unsafe.Slice((*byte)(client.Ptr()), client.Len())
	ownerBytes[42] = 0xCD
	assert.Equal(t, byte(0xCD), clientBytes[42])

	require.NoError(t, client.Close())
	require.NoError(t, owner.Close())
}

func TestShmemCreateZeroes(t *testing.T) {
	name := shmName(t, "zeroes")

	owner, err := Create(name, 128)
	require.NoError(t, err)
	defer owner.Close()

	b := unsafe.Slice((*byte)(owner.Ptr()), owner.Len())
	for i, v := range b {
		require.Zerof(t, v, "byte %d not zeroed", i)
	}
}

func TestShmemCreateReplacesStale(t *testing.T) {
	name := shmName(t, "stale")

	first, err := Create(name, 64, WithLogger(zap.NewNop()))
	require.NoError(t, err)
	b := unsafe.Slice((*byte)(first.Ptr()), first.Len())
	b[0] = 0xFF

	// A second owner over the same name starts from a fresh zeroed
	// segment, detached from the first mapping.
	second, err := Create(name, 64)
	require.NoError(t, err)
	defer second.Close()
	sb := unsafe.Slice((*byte)(second.Ptr()), second.Len())
	assert.Zero(t, sb[0])

	require.NoError(t, first.Close())
}

func TestShmemAttachNowhere(t *testing.T) {
	_, err := Attach(shmName(t, "nowhere-fdjsafkdjka"), 64, false)
	require.Error(t, err)
}

func TestShmemOwnerUnlinksOnClose(t *testing.T) {
	name := shmName(t, "unlink")

	owner, err := Create(name, 64)
	require.NoError(t, err)
	require.NoError(t, owner.Close())

	_, err = Attach(name, 64, false)
	require.Error(t, err)
}

func TestShmemClientKeepsName(t *testing.T) {
	name := shmName(t, "keep")

	owner, err := Create(name, 64)
	require.NoError(t, err)
	defer owner.Close()

	client, err := Attach(name, 64, false)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	// Closing a client leaves the name attachable.
	again, err := Attach(name, 64, false)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}
