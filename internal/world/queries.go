package world

import (
	"context"
	"sort"
	"strings"

	"github.com/meshbbs/core/internal/store"
)

// LookRoom returns the room a player currently occupies, for the LOOK
// and WHERE verbs — a read-only query, not a mutating operation, so it
// goes through async.View rather than a transaction.
func (e *Engine) LookRoom(ctx context.Context, username string) (*Room, error) {
	var room Room
	err := e.async.View(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		r, err := getRoom(tx, p.CurrentRoom)
		if err != nil {
			return err
		}
		room = *r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// Inventory returns the full player record (inventory, wallet, quests,
// achievements) for the INV/QUEST LIST/WHO-adjacent verbs.
func (e *Engine) Inventory(ctx context.Context, username string) (*Player, error) {
	var p *Player
	err := e.async.View(ctx, func(tx *store.Tx) error {
		loaded, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		p = loaded
		return nil
	})
	return p, err
}

// WhoHere lists the other players sharing username's current room,
// sorted by name, for the WHO verb.
func (e *Engine) WhoHere(ctx context.Context, username string) ([]string, error) {
	var names []string
	err := e.async.View(ctx, func(tx *store.Tx) error {
		self, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		return tx.ScanPrefix(BucketPlayers, "", func(key string, value []byte) error {
			var p Player
			if err := unmarshalInto(value, &p); err != nil {
				return internalErr(err)
			}
			if p.CurrentRoom == self.CurrentRoom && !strings.EqualFold(p.Username, username) {
				names = append(names, p.Username)
			}
			return nil
		})
	})
	sort.Strings(names)
	return names, err
}

// ListUsers returns every account sorted by username, for the admin
// USERS verb (§4.8). A read-only full scan, so it goes through
// async.View rather than a transaction.
func (e *Engine) ListUsers(ctx context.Context) ([]Player, error) {
	var out []Player
	err := e.async.View(ctx, func(tx *store.Tx) error {
		return tx.ScanPrefix(BucketPlayers, "", func(key string, value []byte) error {
			var p Player
			if err := unmarshalInto(value, &p); err != nil {
				return internalErr(err)
			}
			out = append(out, p)
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, err
}

// UserInfo is an alias for Inventory's load-by-username, named for the
// admin USERINFO verb's read intent.
func (e *Engine) UserInfo(ctx context.Context, username string) (*Player, error) {
	return e.Inventory(ctx, username)
}
