// Package gate holds the balance-and-fee pipeline rules as pure transition
// functions. Handlers feed it current document state and apply whatever
// movement it returns inside a single database transaction, which keeps the
// rules testable without HTTP or a database.
package gate

import (
	"errors"
	"math"
)

const (
	// ActivationMarginRate is the profit margin, as a fraction of
	// principal, above which ROI extraction requires the activation fee.
	ActivationMarginRate = 0.20

	// ActivationFeeRate is charged on the realized ROI once the margin is
	// exceeded.
	ActivationFeeRate = 0.20

	// TaxClearanceFeeRate is charged on the ROI after extraction, gating
	// the move from locked balance into a disbursable withdrawal.
	TaxClearanceFeeRate = 0.18

	// NetworkFeeRate is charged on the amount of every withdrawal before
	// it becomes admin-reviewable.
	NetworkFeeRate = 0.20
)

var (
	ErrInvestmentNotMatured = errors.New("investment has not matured")
	ErrROIAlreadyWithdrawn  = errors.New("ROI has already been withdrawn for this investment")
	ErrNoROIAvailable       = errors.New("no ROI available on this investment")
	ErrFeeNotRequired       = errors.New("this fee is not required for your account")
	ErrFeeAlreadyPaid       = errors.New("this fee has already been paid")
	ErrInsufficientLocked   = errors.New("locked balance does not cover the tax clearance fee")
)

// Round keeps every derived amount at two decimal places so repeated
// attempts always quote the same figure.
func Round(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ROI is the realized return on a matured investment.
func ROI(principal, currentValue float64) float64 {
	return Round(currentValue - principal)
}

// ExtractionDecision is the outcome of evaluating an ROI extraction request.
type ExtractionDecision struct {
	ROI float64

	// ActivationFeeDue is non-zero when the extraction is blocked until the
	// activation fee is paid. Merely attempting the extraction obligates
	// the user to this fee.
	ActivationFeeDue float64

	// TaxClearanceFeeDue is set on a permitted extraction; it gates the
	// locked balance created by the extraction.
	TaxClearanceFeeDue float64
}

// Permitted reports whether funds may move now.
func (d ExtractionDecision) Permitted() bool {
	return d.ActivationFeeDue == 0
}

// EvaluateExtraction decides whether ROI may leave a matured investment.
//
// The investment must be completed with its ROI still unclaimed. When the
// realized profit exceeds the activation margin of principal and the
// activation fee is unpaid, the extraction is refused and the fee obligation
// is created as a side effect of the attempt itself.
func EvaluateExtraction(principal, currentValue float64, matured, roiWithdrawn, activationFeePaid bool) (ExtractionDecision, error) {
	if !matured {
		return ExtractionDecision{}, ErrInvestmentNotMatured
	}
	if roiWithdrawn {
		return ExtractionDecision{}, ErrROIAlreadyWithdrawn
	}

	roi := ROI(principal, currentValue)
	if roi <= 0 {
		return ExtractionDecision{}, ErrNoROIAvailable
	}

	decision := ExtractionDecision{ROI: roi}

	margin := ActivationMarginRate * principal
	if roi > margin && !activationFeePaid {
		decision.ActivationFeeDue = Round(ActivationFeeRate * roi)
		return decision, nil
	}

	decision.TaxClearanceFeeDue = Round(TaxClearanceFeeRate * roi)
	return decision, nil
}

// SettleFee validates a one-shot fee gate before it is marked paid.
func SettleFee(required, paid bool) error {
	if !required {
		return ErrFeeNotRequired
	}
	if paid {
		return ErrFeeAlreadyPaid
	}
	return nil
}

// TaxClearanceSettlement is the movement triggered by paying the
// tax-clearance fee: the locked balance, less the fee, becomes a withdrawal
// awaiting its network fee.
type TaxClearanceSettlement struct {
	NetAmount     float64
	NetworkFeeDue float64
}

// SettleTaxClearance computes the locked -> withdrawal transition.
func SettleTaxClearance(lockedBalance, feeAmount float64) (TaxClearanceSettlement, error) {
	if lockedBalance < feeAmount {
		return TaxClearanceSettlement{}, ErrInsufficientLocked
	}

	net := Round(lockedBalance - feeAmount)
	return TaxClearanceSettlement{
		NetAmount:     net,
		NetworkFeeDue: Round(NetworkFeeRate * net),
	}, nil
}

// NetworkFee is the fee owed on a regular withdrawal of the given amount.
func NetworkFee(amount float64) float64 {
	return Round(NetworkFeeRate * amount)
}
