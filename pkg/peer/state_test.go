package peer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsApplicable_LoginIsExactMatch(t *testing.T) {
	require.True(t, isApplicable(StateLogin, StateLogin))
	require.False(t, isApplicable(StateLogin, StateAuth))
	require.False(t, isApplicable(StateLogin, StateConfig))
	require.False(t, isApplicable(StateLogin, StateActive))
}

func TestIsApplicable_DeadIsExactMatch(t *testing.T) {
	require.True(t, isApplicable(StateDead, StateDead))
	require.False(t, isApplicable(StateDead, StateActive))
}

func TestIsApplicable_ForwardLooseMatchingForLaterStates(t *testing.T) {
	require.True(t, isApplicable(StateAuth, StateAuth))
	require.True(t, isApplicable(StateAuth, StateConfig))
	require.True(t, isApplicable(StateAuth, StateActive))
	require.False(t, isApplicable(StateAuth, StateLogin))

	require.True(t, isApplicable(StateConfig, StateConfig))
	require.True(t, isApplicable(StateConfig, StateActive))
	require.False(t, isApplicable(StateConfig, StateAuth))

	require.True(t, isApplicable(StateActive, StateActive))
	require.False(t, isApplicable(StateActive, StateConfig))
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateLogin:  "LOGIN",
		StateAuth:   "AUTH",
		StateConfig: "CONFIG",
		StateActive: "ACTIVE",
		StateDead:   "DEAD",
	}
	for state, want := range cases {
		require.Equal(t, want, state.String())
	}
}
