package transfer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestTransitions(t *testing.T) {
	cases := []struct {
		from    RequestStatus
		to      RequestStatus
		allowed bool
	}{
		{RequestStatusNew, RequestStatusPending, true},
		{RequestStatusNew, RequestStatusCancelled, true},
		{RequestStatusNew, RequestStatusApproved, false},
		{RequestStatusNew, RequestStatusRejected, false},
		{RequestStatusPending, RequestStatusApproved, true},
		{RequestStatusPending, RequestStatusRejected, true},
		{RequestStatusPending, RequestStatusCancelled, true},
		{RequestStatusPending, RequestStatusNew, false},
		{RequestStatusApproved, RequestStatusCancelled, false},
		{RequestStatusApproved, RequestStatusRejected, false},
		{RequestStatusRejected, RequestStatusPending, false},
		{RequestStatusCancelled, RequestStatusPending, false},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransferTransitions(t *testing.T) {
	cases := []struct {
		from    TransferStatus
		to      TransferStatus
		allowed bool
	}{
		{TransferStatusNew, TransferStatusDelivering, true},
		{TransferStatusNew, TransferStatusRejected, true},
		{TransferStatusNew, TransferStatusCompleted, false},
		{TransferStatusDelivering, TransferStatusCompleted, true},
		{TransferStatusDelivering, TransferStatusRejected, false},
		{TransferStatusDelivering, TransferStatusNew, false},
		{TransferStatusCompleted, TransferStatusDelivering, false},
		{TransferStatusRejected, TransferStatusDelivering, false},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	require.False(t, RequestStatusNew.IsTerminal())
	require.False(t, RequestStatusPending.IsTerminal())
	require.True(t, RequestStatusApproved.IsTerminal())
	require.True(t, RequestStatusRejected.IsTerminal())
	require.True(t, RequestStatusCancelled.IsTerminal())

	require.False(t, TransferStatusNew.IsTerminal())
	require.False(t, TransferStatusDelivering.IsTerminal())
	require.True(t, TransferStatusCompleted.IsTerminal())
	require.True(t, TransferStatusRejected.IsTerminal())
}
