package rewardcalc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeliveryCreditRateFloorsToHundreds(t *testing.T) {
	require.Equal(t, int64(0), DeliveryCreditRate(0))
	require.Equal(t, int64(0), DeliveryCreditRate(99))
	require.Equal(t, int64(1), DeliveryCreditRate(100))
	require.Equal(t, int64(12), DeliveryCreditRate(1299))
}

func TestDeliveryCreditRateRejectsNegativeAmounts(t *testing.T) {
	require.Equal(t, int64(0), DeliveryCreditRate(-500))
}

func TestSplitSharesDividesEvenlyAndKeepsDust(t *testing.T) {
	share, dust := SplitShares(100, 3)
	require.Equal(t, int64(33), share)
	require.Equal(t, int64(1), dust)
	require.Equal(t, int64(100), share*3+dust, "share*n + dust must reconstruct the original balance exactly")
}

func TestSplitSharesExactDivisionLeavesNoDust(t *testing.T) {
	share, dust := SplitShares(90, 3)
	require.Equal(t, int64(30), share)
	require.Equal(t, int64(0), dust)
}

func TestSplitSharesWithZeroRecipientsReturnsWholeBalanceAsDust(t *testing.T) {
	share, dust := SplitShares(100, 0)
	require.Equal(t, int64(0), share)
	require.Equal(t, int64(100), dust)
}

func TestSplitSharesWithNegativeRecipientsReturnsWholeBalanceAsDust(t *testing.T) {
	share, dust := SplitShares(50, -2)
	require.Equal(t, int64(0), share)
	require.Equal(t, int64(50), dust)
}

func TestSplitSharesWithZeroBalance(t *testing.T) {
	share, dust := SplitShares(0, 4)
	require.Equal(t, int64(0), share)
	require.Equal(t, int64(0), dust)
}
