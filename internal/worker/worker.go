package worker

import (
	"context"

	"github.com/arkvest/arkvest/internal/helper"
	"github.com/arkvest/arkvest/internal/repository"
	"github.com/arkvest/arkvest/internal/smtp"
	"github.com/arkvest/arkvest/internal/stream"
)

type Worker struct {
	KafkaStream *stream.KafkaStream
	DB          repository.Database
	Mailer      smtp.MailerInterface
	Helper      *helper.HelperRepository
	Ctx         context.Context
}

const (
	// depositCreditGroupID is used by the worker that credits wallets after an operator confirms a deposit
	depositCreditGroupID = "deposit-credit-group"

	// depositNotificationGroupID is used by the worker that emails users once their deposit has been credited
	depositNotificationGroupID = "deposit-notification-group"

	// withdrawalDisbursementGroupID is used by the worker that completes approved withdrawals
	withdrawalDisbursementGroupID = "withdrawal-disbursement-group"

	// Topics
	// DepositConfirmedTopic carries deposits an operator has confirmed; consuming it moves money into the wallet
	DepositConfirmedTopic = "deposit.confirmed"

	// DepositCreditedTopic carries deposits whose wallet credit has been applied, for user notification
	DepositCreditedTopic = "deposit.credited"

	// WithdrawalApprovedTopic carries withdrawals an operator has approved for disbursement
	WithdrawalApprovedTopic = "withdrawal.approved"
)

// Our workers typically need access to the database and the kafka event stream;
// worker-specific dependencies can be passed as arguments to the worker
func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		DB:          wk.DB,
		Mailer:      wk.Mailer,
		Helper:      wk.Helper,
		Ctx:         wk.Ctx,
	}
}

type depositEvent struct {
	DepositID string `json:"deposit_id"`
}

type withdrawalEvent struct {
	WithdrawalID string `json:"withdrawal_id"`
}
