package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoteInsufficientFundsRejectionFiresOnceAtThreshold(t *testing.T) {
	var fired int
	a := &App{
		OnInsufficientFundsSpike: func(count int, window string) {
			fired++
		},
	}

	for i := 0; i < insufficientFundsSpikeThreshold-1; i++ {
		a.noteInsufficientFundsRejection()
	}
	require.Equal(t, 0, fired, "must not fire before crossing the threshold")

	a.noteInsufficientFundsRejection()
	require.Equal(t, 1, fired, "must fire exactly once at the threshold")

	a.noteInsufficientFundsRejection()
	require.Equal(t, 1, fired, "must not re-fire every call while still over threshold")
}

func TestNoteInsufficientFundsRejectionResetsAfterWindowEmpties(t *testing.T) {
	a := &App{}
	for i := 0; i < insufficientFundsSpikeThreshold; i++ {
		a.noteInsufficientFundsRejection()
	}
	require.True(t, a.fundsAlerted)

	a.fundsWindow = nil
	a.noteInsufficientFundsRejection()
	require.False(t, a.fundsAlerted, "a single rejection after the window clears must not re-trip the alert")
}

func TestNoteInsufficientFundsRejectionIsSafeWithNilSpikeCallback(t *testing.T) {
	a := &App{}
	require.NotPanics(t, func() {
		for i := 0; i < insufficientFundsSpikeThreshold+1; i++ {
			a.noteInsufficientFundsRejection()
		}
	})
}
