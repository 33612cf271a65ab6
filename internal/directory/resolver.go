package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/LeventeLantos/ema-scheduler/internal/model"
	"github.com/LeventeLantos/ema-scheduler/internal/pager"
)

// ContactSource is the slice of the messaging service the resolver needs.
type ContactSource interface {
	ListContacts(ctx context.Context, page int) (pager.Page[model.Contact], error)
	GetContact(ctx context.Context, id int64) (model.Contact, error)
}

type RecipientNotFoundError struct {
	ParticipantID int
	Account       string
}

func (e *RecipientNotFoundError) Error() string {
	return fmt.Sprintf("participant number %d not found in the last names of contacts under account %q",
		e.ParticipantID, e.Account)
}

type AmbiguousRecipientError struct {
	ParticipantID int
	Account       string
	ContactIDs    []int64
}

func (e *AmbiguousRecipientError) Error() string {
	return fmt.Sprintf("multiple contacts %v found for participant number %d under account %q; remove duplicate entries",
		e.ContactIDs, e.ParticipantID, e.Account)
}

// Resolver finds the contact whose last name carries a participant number.
type Resolver struct {
	src     ContactSource
	account string
	log     *slog.Logger
}

func NewResolver(src ContactSource, account string, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{src: src, account: account, log: log}
}

// FindContact walks every contact page and requires exactly one match.
func (r *Resolver) FindContact(ctx context.Context, participantID int) (int64, error) {
	r.log.Info("finding contact information", "participant", participantID)

	want := strconv.Itoa(participantID)
	var matches []int64
	for contacts, err := range pager.Pages(ctx, r.src.ListContacts) {
		if err != nil {
			return 0, err
		}
		for _, c := range contacts {
			if c.LastName == want {
				matches = append(matches, c.ID)
			}
		}
	}

	switch len(matches) {
	case 0:
		return 0, &RecipientNotFoundError{ParticipantID: participantID, Account: r.account}
	case 1:
		r.log.Debug("contact resolved", "participant", participantID, "contact_id", matches[0])
		return matches[0], nil
	default:
		return 0, &AmbiguousRecipientError{ParticipantID: participantID, Account: r.account, ContactIDs: matches}
	}
}

func (r *Resolver) Phone(ctx context.Context, contactID int64) (string, error) {
	contact, err := r.src.GetContact(ctx, contactID)
	if err != nil {
		return "", err
	}
	return contact.Phone, nil
}
