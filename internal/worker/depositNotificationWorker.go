package worker

import (
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/arkvest/arkvest/internal/stream"
)

func (wk *Worker) DepositNotificationWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: depositNotificationGroupID,
		Topic:   DepositCreditedTopic,
	})

	if err != nil {
		log.Fatalf("Error creating consumer: %v", err)
	}
	defer consumer.Close()

	for {
		select {
		case <-wk.Ctx.Done():
			log.Println("DepositNotificationWorker received cancellation signal, shutting down...")
			return
		default:
			event := consumer.Poll(100)
			switch e := event.(type) {
			case *kafka.Message:
				var evt depositEvent
				json.Unmarshal(e.Value, &evt)

				wk.sendDepositAlert(evt.DepositID)
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

func (wk *Worker) sendDepositAlert(depositID string) bool {
	deposit, found, err := wk.DB.Deposit().GetOne(depositID)
	if err != nil || !found {
		log.Printf("Error finding deposit %s for alert: %v", depositID, err)
		return false
	}

	user, found, err := wk.DB.User().GetOne(deposit.UserID)
	if err != nil || !found {
		log.Printf("Error finding user for deposit alert: %v", err)
		return false
	}

	wallet, found, err := wk.DB.Wallet().GetByUserID(user.ID)
	if err != nil || !found {
		log.Printf("Error finding wallet for deposit alert: %v", err)
		return false
	}

	wk.Helper.BackgroundTask(nil, func() error {
		emailData := wk.Helper.NewEmailData()
		emailData["Name"] = user.FirstName + " " + user.LastName
		emailData["Amount"] = deposit.Amount
		emailData["Currency"] = deposit.Currency
		emailData["Reference"] = deposit.Reference
		emailData["NewBalance"] = wallet.AvailableBalance

		err = wk.Mailer.Send(user.Email, emailData, "deposit-confirmed.tmpl")
		if err != nil {
			log.Printf("Error sending deposit email alert: %v", err)
			return err
		}

		return nil
	})

	return true
}
