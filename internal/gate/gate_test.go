package gate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateExtraction_BlocksUntilActivationFeePaid(t *testing.T) {
	// principal 1000, value 1300 -> roi 300 exceeds the 200 margin
	decision, err := EvaluateExtraction(1000, 1300, true, false, false)
	require.NoError(t, err)

	require.False(t, decision.Permitted())
	require.Equal(t, 300.0, decision.ROI)
	require.Equal(t, 60.0, decision.ActivationFeeDue)

	// a repeat attempt quotes the same fee
	again, err := EvaluateExtraction(1000, 1300, true, false, false)
	require.NoError(t, err)
	require.Equal(t, decision.ActivationFeeDue, again.ActivationFeeDue)
}

func TestEvaluateExtraction_PermitsAfterActivationFeePaid(t *testing.T) {
	decision, err := EvaluateExtraction(1000, 1300, true, false, true)
	require.NoError(t, err)

	require.True(t, decision.Permitted())
	require.Equal(t, 300.0, decision.ROI)
	require.Equal(t, 54.0, decision.TaxClearanceFeeDue)
}

func TestEvaluateExtraction_SmallProfitSkipsActivationFee(t *testing.T) {
	// roi 150 is under the 200 margin, so no activation fee even unpaid
	decision, err := EvaluateExtraction(1000, 1150, true, false, false)
	require.NoError(t, err)

	require.True(t, decision.Permitted())
	require.Equal(t, 150.0, decision.ROI)
	require.Equal(t, 27.0, decision.TaxClearanceFeeDue)
}

func TestEvaluateExtraction_Failures(t *testing.T) {
	_, err := EvaluateExtraction(1000, 1300, false, false, false)
	require.ErrorIs(t, err, ErrInvestmentNotMatured)

	_, err = EvaluateExtraction(1000, 1300, true, true, false)
	require.ErrorIs(t, err, ErrROIAlreadyWithdrawn)

	_, err = EvaluateExtraction(1000, 1000, true, false, false)
	require.ErrorIs(t, err, ErrNoROIAvailable)

	_, err = EvaluateExtraction(1000, 950, true, false, false)
	require.ErrorIs(t, err, ErrNoROIAvailable)
}

func TestSettleFee(t *testing.T) {
	require.ErrorIs(t, SettleFee(false, false), ErrFeeNotRequired)
	require.ErrorIs(t, SettleFee(true, true), ErrFeeAlreadyPaid)
	require.NoError(t, SettleFee(true, false))
}

func TestSettleTaxClearance(t *testing.T) {
	settlement, err := SettleTaxClearance(300, 54)
	require.NoError(t, err)

	require.Equal(t, 246.0, settlement.NetAmount)
	require.Equal(t, 49.2, settlement.NetworkFeeDue)

	_, err = SettleTaxClearance(50, 54)
	require.ErrorIs(t, err, ErrInsufficientLocked)
}

func TestNetworkFee_RegularWithdrawal(t *testing.T) {
	require.Equal(t, 100.0, NetworkFee(500))
	require.Equal(t, 49.2, NetworkFee(246))
}

func TestRound(t *testing.T) {
	require.Equal(t, 49.2, Round(0.20*246))
	require.Equal(t, 33.33, Round(33.333333))
}
