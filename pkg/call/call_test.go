package call

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dbehnke/dmr-nexus/pkg/protocol"
)

func TestCall_LifecycleFields(t *testing.T) {
	c := NewCall(1, 100, 200, 1, protocol.CallTypeGroup, nil)
	require.False(t, c.Ended)
	require.Equal(t, 0, c.Packets)

	c.PacketReceived()
	c.PacketReceived()
	require.Equal(t, 2, c.Packets)

	c.End(false)
	require.True(t, c.Ended)
	require.WithinDuration(t, time.Now(), c.EndTime, time.Second)
}

func TestCall_EndByTimeoutUsesLastPacketTime(t *testing.T) {
	c := NewCall(1, 100, 200, 1, protocol.CallTypeGroup, nil)
	c.LastPacketTime = c.StartTime.Add(2 * time.Second)
	c.End(true)
	require.Equal(t, c.LastPacketTime, c.EndTime)
}

func TestCall_IsDeadAfterSilence(t *testing.T) {
	c := NewCall(1, 100, 200, 1, protocol.CallTypeGroup, nil)
	require.False(t, c.isDead(time.Now()))

	stale := c.LastPacketTime.Add(DeadTimeout + time.Second)
	require.True(t, c.isDead(stale))
}

func TestCall_ToBeCleanedAfterEnd(t *testing.T) {
	c := NewCall(1, 100, 200, 1, protocol.CallTypeGroup, nil)
	c.End(false)
	require.False(t, c.toBeCleaned(time.Now()))
	require.True(t, c.toBeCleaned(c.EndTime.Add(CleanTimeout+time.Second)))
}

func TestCall_ToBeCleanedFromLog(t *testing.T) {
	c := NewCall(1, 100, 200, 1, protocol.CallTypeGroup, nil)
	c.End(false)
	require.False(t, c.toBeCleanedFromLog(c.EndTime.Add(CleanTimeout)))
	require.True(t, c.toBeCleanedFromLog(c.EndTime.Add(CleanLogTimeout+time.Second)))
}
