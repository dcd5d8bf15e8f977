// Approved withdrawals are disbursed off the request path. The operator's
// approval publishes the withdrawal here; this worker marks it completed and
// tells the user their funds are on the way.
package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/arkvest/arkvest/internal/repository"
	"github.com/arkvest/arkvest/internal/stream"
)

func (wk *Worker) DisbursementWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: withdrawalDisbursementGroupID,
		Topic:   WithdrawalApprovedTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			log.Println("DisbursementWorker received cancellation signal, shutting down...")
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				log.Printf("Withdrawal approval received on %s: %s\n", e.TopicPartition, string(e.Value))

				var evt withdrawalEvent
				json.Unmarshal(e.Value, &evt)

				wk.disburseWithdrawal(evt.WithdrawalID)
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

func (wk *Worker) disburseWithdrawal(withdrawalID string) bool {
	completed, err := wk.DB.Withdrawal().Complete(withdrawalID)
	if err != nil {
		log.Printf("Error completing withdrawal %s: %v", withdrawalID, err)
		return false
	}

	if !completed {
		// already disbursed or not confirmed; nothing to do
		log.Printf("Withdrawal %s not in confirmed state; skipping", withdrawalID)
		return false
	}

	withdrawal, found, err := wk.DB.Withdrawal().GetOne(withdrawalID)
	if err != nil || !found {
		log.Printf("Error finding withdrawal %s after completion: %v", withdrawalID, err)
		return false
	}

	wk.Helper.BackgroundTask(nil, func() error {
		_, err := wk.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      withdrawal.UserID,
			Entity:      repository.ActivityLogWithdrawalEntity,
			EntityId:    &withdrawal.ID,
			Description: "Withdrawal completed",
		})

		if err != nil {
			log.Printf("Error logging withdrawal completion: %v", err)
			return err
		}

		return nil
	})

	user, found, err := wk.DB.User().GetOne(withdrawal.UserID)
	if err != nil || !found {
		log.Printf("Error finding user for withdrawal alert: %v", err)
		return false
	}

	wk.Helper.BackgroundTask(nil, func() error {
		emailData := wk.Helper.NewEmailData()
		emailData["Name"] = user.FirstName + " " + user.LastName
		emailData["Amount"] = withdrawal.Amount
		emailData["Currency"] = withdrawal.Currency
		emailData["Network"] = withdrawal.Network
		emailData["WalletAddress"] = withdrawal.WalletAddress

		err = wk.Mailer.Send(user.Email, emailData, "withdrawal-completed.tmpl")
		if err != nil {
			log.Printf("Error sending withdrawal email alert: %v", err)
			return err
		}

		return nil
	})

	return true
}
