package world

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meshbbs/core/internal/store"
)

// SendMail delivers a store-and-forward message to an offline or
// online recipient, indexed by recipient for inbox listing.
func (e *Engine) SendMail(ctx context.Context, from, to, subject, body string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		if _, err := getPlayer(tx, from); err != nil {
			return err
		}
		if _, err := getPlayer(tx, to); err != nil {
			return err
		}
		m := Mail{
			ID:      uuid.NewString(),
			From:    from,
			To:      to,
			Subject: subject,
			Body:    body,
			SentAt:  time.Now(),
		}
		if err := tx.Put(BucketMail, m.ID, m); err != nil {
			return internalErr(err)
		}
		indexKey := fmt.Sprintf("%s:%020d:%s", key(to), m.SentAt.UnixNano(), m.ID)
		if err := tx.Put(BucketMailByRecipient, indexKey, m.ID); err != nil {
			return internalErr(err)
		}
		e.notify(to, "New mail from "+from+": "+subject)
		return nil
	})
}

// ListMail returns username's inbox, newest first.
func (e *Engine) ListMail(ctx context.Context, username string) ([]Mail, error) {
	var out []Mail
	err := e.withTx(ctx, func(tx *store.Tx) error {
		prefix := key(username) + ":"
		var ids []string
		if err := tx.ScanPrefix(BucketMailByRecipient, prefix, func(k string, v []byte) error {
			var id string
			if err := unmarshalInto(v, &id); err != nil {
				return internalErr(err)
			}
			ids = append(ids, id)
			return nil
		}); err != nil {
			return err
		}
		for i := len(ids) - 1; i >= 0; i-- {
			var m Mail
			found, err := tx.Get(BucketMail, ids[i], &m)
			if err != nil {
				return internalErr(err)
			}
			if found {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

// ReadMail marks a message read and returns it.
func (e *Engine) ReadMail(ctx context.Context, username, mailID string) (*Mail, error) {
	var m Mail
	err := e.withTx(ctx, func(tx *store.Tx) error {
		found, err := tx.Get(BucketMail, mailID, &m)
		if err != nil {
			return internalErr(err)
		}
		if !found || lower(m.To) != key(username) {
			return domainErr(ErrNotFound, "%s", mailID)
		}
		if !m.Read {
			m.Read = true
			if err := tx.Put(BucketMail, mailID, m); err != nil {
				return internalErr(err)
			}
		}
		return nil
	})
	return &m, err
}

// DeleteMail removes a message the caller owns.
func (e *Engine) DeleteMail(ctx context.Context, username, mailID string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		var m Mail
		found, err := tx.Get(BucketMail, mailID, &m)
		if err != nil {
			return internalErr(err)
		}
		if !found || lower(m.To) != key(username) {
			return domainErr(ErrNotFound, "%s", mailID)
		}
		if err := tx.Delete(BucketMail, mailID); err != nil {
			return internalErr(err)
		}
		indexKey := fmt.Sprintf("%s:%020d:%s", key(m.To), m.SentAt.UnixNano(), m.ID)
		return tx.Delete(BucketMailByRecipient, indexKey)
	})
}
