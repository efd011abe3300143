package world

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meshbbs/core/internal/store"
)

// PostBulletin adds a post to board. It checks no lock flag: a locked
// post on the board does not block new posts.
func (e *Engine) PostBulletin(ctx context.Context, author, board, title, body string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		if _, err := getPlayer(tx, author); err != nil {
			return err
		}
		b := Bulletin{
			ID:       uuid.NewString(),
			Board:    board,
			Author:   author,
			Title:    title,
			Body:     body,
			PostedAt: time.Now(),
		}
		if err := tx.Put(BucketBulletins, b.ID, b); err != nil {
			return internalErr(err)
		}
		indexKey := fmt.Sprintf("%s:%020d:%s", board, b.PostedAt.UnixNano(), b.ID)
		return tx.Put(BucketBulletinsByBoard, indexKey, b.ID)
	})
}

// ListBulletins returns board's posts, pinned first then newest first.
func (e *Engine) ListBulletins(ctx context.Context, board string) ([]Bulletin, error) {
	var out []Bulletin
	err := e.withTx(ctx, func(tx *store.Tx) error {
		prefix := board + ":"
		var ids []string
		if err := tx.ScanPrefix(BucketBulletinsByBoard, prefix, func(k string, v []byte) error {
			var id string
			if err := unmarshalInto(v, &id); err != nil {
				return internalErr(err)
			}
			ids = append(ids, id)
			return nil
		}); err != nil {
			return err
		}
		var pinned, rest []Bulletin
		for i := len(ids) - 1; i >= 0; i-- {
			var b Bulletin
			found, err := tx.Get(BucketBulletins, ids[i], &b)
			if err != nil {
				return internalErr(err)
			}
			if !found {
				continue
			}
			if b.Pinned {
				pinned = append(pinned, b)
			} else {
				rest = append(rest, b)
			}
		}
		out = append(pinned, rest...)
		return nil
	})
	return out, err
}

// DeleteBulletin removes a post; callers enforce author-or-moderator
// authorization before calling this (§4.8: command layer gates by role).
func (e *Engine) DeleteBulletin(ctx context.Context, board, bulletinID string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		var b Bulletin
		found, err := tx.Get(BucketBulletins, bulletinID, &b)
		if err != nil {
			return internalErr(err)
		}
		if !found {
			return domainErr(ErrNotFound, "%s", bulletinID)
		}
		if err := tx.Delete(BucketBulletins, bulletinID); err != nil {
			return internalErr(err)
		}
		indexKey := fmt.Sprintf("%s:%020d:%s", board, b.PostedAt.UnixNano(), b.ID)
		return tx.Delete(BucketBulletinsByBoard, indexKey)
	})
}

// PinBulletin toggles a post's pinned flag (moderator action). No
// audit entry is recorded, here or by its caller.
func (e *Engine) PinBulletin(ctx context.Context, bulletinID string, pinned bool) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		var b Bulletin
		found, err := tx.Get(BucketBulletins, bulletinID, &b)
		if err != nil {
			return internalErr(err)
		}
		if !found {
			return domainErr(ErrNotFound, "%s", bulletinID)
		}
		b.Pinned = pinned
		return tx.Put(BucketBulletins, bulletinID, b)
	})
}

// LockBulletin toggles a post's locked flag. Nothing in this package
// checks the flag: RenameBulletin and DeleteBulletin act on locked
// posts too.
func (e *Engine) LockBulletin(ctx context.Context, bulletinID string, locked bool) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		var b Bulletin
		found, err := tx.Get(BucketBulletins, bulletinID, &b)
		if err != nil {
			return internalErr(err)
		}
		if !found {
			return domainErr(ErrNotFound, "%s", bulletinID)
		}
		b.Locked = locked
		return tx.Put(BucketBulletins, bulletinID, b)
	})
}

// RenameBulletin retitles a post (moderator RENAME, §4.8).
func (e *Engine) RenameBulletin(ctx context.Context, bulletinID, newTitle string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		var b Bulletin
		found, err := tx.Get(BucketBulletins, bulletinID, &b)
		if err != nil {
			return internalErr(err)
		}
		if !found {
			return domainErr(ErrNotFound, "%s", bulletinID)
		}
		b.Title = newTitle
		return tx.Put(BucketBulletins, bulletinID, b)
	})
}
