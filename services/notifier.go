package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"time"

	models "github.com/solvetogather/solvetogather-go/models"
	store "github.com/solvetogather/solvetogather-go/store"
)

const (
	NotifyTransactionVerified = "transaction_verified"
	NotifyTransactionRejected = "transaction_rejected"
)

type Mailer interface {
	Send(ctx context.Context, to, name, subject, htmlBody string) error
}

// Notifier tells donors about review outcomes. Failures are logged, never returned:
// a review stands whether or not the donor could be reached.
type Notifier struct {
	store  store.Store
	mailer Mailer
}

// NewNotifier accepts a nil mailer; notifications are then stored only.
func NewNotifier(st store.Store, mailer Mailer) *Notifier {
	return &Notifier{store: st, mailer: mailer}
}

func (n *Notifier) TransactionReviewed(ctx context.Context, tx *models.PendingTransaction) {
	note := &models.Notification{
		UserID:    tx.DonorID,
		RefID:     tx.ID,
		CreatedAt: time.Now(),
	}
	note.UpdatedAt = note.CreatedAt
	switch tx.Status {
	case models.TransactionVerified:
		note.Type = NotifyTransactionVerified
		note.Title = "Donation verified"
		note.Message = fmt.Sprintf("Your donation of %.2f has been verified. Thank you!", tx.TotalAmount)
	case models.TransactionRejected:
		note.Type = NotifyTransactionRejected
		note.Title = "Donation rejected"
		note.Message = fmt.Sprintf("Your donation of %.2f was rejected: %s", tx.TotalAmount, tx.RejectionReason)
	default:
		return
	}

	if err := n.store.CreateNotification(ctx, note); err != nil {
		log.Printf("[notify] store notification for %s: %v", tx.DonorID.Hex(), err)
	}
	if n.mailer == nil {
		return
	}

	donor, err := n.store.GetUser(ctx, tx.DonorID)
	if err != nil || donor.Email == "" {
		return
	}
	body := "<p>" + html.EscapeString(note.Message) + "</p>"
	if err := n.mailer.Send(ctx, donor.Email, donor.Name, note.Title, body); err != nil {
		log.Printf("[notify] email %s: %v", donor.Email, err)
	}
}
