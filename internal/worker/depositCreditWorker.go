// A confirmed deposit does not touch the wallet in the request cycle.
// The operator's confirmation publishes the deposit here, and this worker
// applies the credit and its ledger entry, then hands the deposit to the
// notification worker.
package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/arkvest/arkvest/internal/repository"
	"github.com/arkvest/arkvest/internal/stream"
)

func (wk *Worker) DepositCreditWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: depositCreditGroupID,
		Topic:   DepositConfirmedTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			log.Println("DepositCreditWorker received cancellation signal, shutting down...")
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				log.Printf("Deposit confirmation received on %s: %s\n", e.TopicPartition, string(e.Value))

				var evt depositEvent
				json.Unmarshal(e.Value, &evt)

				success := wk.creditDeposit(evt.DepositID)
				if success {
					wk.KafkaStream.ProduceMessage(DepositCreditedTopic, string(e.Value))
				}
			case kafka.Error:
				log.Printf("Error: %v\n", e)
			case *kafka.AssignedPartitions:
				consumer.Assign(e.Partitions)
			case *kafka.RevokedPartitions:
				consumer.Unassign()
			}
		}
	}
}

func (wk *Worker) creditDeposit(depositID string) bool {
	deposit, found, err := wk.DB.Deposit().GetOne(depositID)
	if err != nil || !found {
		log.Printf("Error finding deposit %s for credit: %v", depositID, err)
		return false
	}

	if deposit.Status != repository.DepositConfirmedStatus {
		log.Printf("Deposit %s is %s, not confirmed; skipping credit", deposit.ID, deposit.Status)
		return false
	}

	balanceAfter, err := wk.DB.Wallet().CreditAvailable(deposit.UserID, deposit.Amount, nil)
	if err != nil {
		log.Printf("Error crediting wallet for deposit %s: %v", deposit.ID, err)
		return false
	}

	_, err = wk.DB.Ledger().Insert(&repository.LedgerEntry{
		UserID:       deposit.UserID,
		EntryType:    repository.LedgerEntryCredit,
		Bucket:       repository.LedgerBucketAvailable,
		Amount:       deposit.Amount,
		BalanceAfter: balanceAfter,
		Reason:       repository.LedgerReasonDeposit,
		Entity:       repository.ActivityLogDepositEntity,
		EntityID:     &deposit.ID,
	}, nil)
	if err != nil {
		log.Printf("Error writing ledger entry for deposit %s: %v", deposit.ID, err)
	}

	wk.Helper.BackgroundTask(nil, func() error {
		_, err := wk.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      deposit.UserID,
			Entity:      repository.ActivityLogDepositEntity,
			EntityId:    &deposit.ID,
			Description: "Deposit credited",
		})

		if err != nil {
			log.Printf("Error logging deposit credit: %v", err)
			return err
		}

		return nil
	})

	return true
}
