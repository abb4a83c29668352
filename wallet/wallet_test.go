package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserWalletIDIsDeterministicAndPrefixed(t *testing.T) {
	require.Equal(t, "wallet:u1", UserWalletID("u1"))
	require.Equal(t, UserWalletID("u1"), UserWalletID("u1"))
}

func TestTaskWalletIDIsDeterministicAndPrefixed(t *testing.T) {
	require.Equal(t, "wallet:t1", TaskWalletID("t1"))
}

func TestWalletIDsDifferByID(t *testing.T) {
	require.NotEqual(t, UserWalletID("u1"), UserWalletID("u2"))
	require.NotEqual(t, TaskWalletID("t1"), TaskWalletID("t2"))
}
