package world

import (
	"context"

	"github.com/meshbbs/core/internal/store"
)

const maxLoyalty = 100

// SummonCompanion adds a new companion to the player's roster, or
// un-dismisses an existing one of the same species/nickname.
func (e *Engine) SummonCompanion(ctx context.Context, username, species, nickname string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		for i, c := range p.Companions {
			if c.Species == species && c.Nickname == nickname {
				p.Companions[i].Following = true
				return putPlayer(tx, p)
			}
		}
		p.Companions = append(p.Companions, Companion{
			Species:   species,
			Nickname:  nickname,
			Loyalty:   50,
			Following: true,
		})
		return putPlayer(tx, p)
	})
}

// DismissCompanion sends a companion out of the active party without
// forgetting it; Feed and SummonCompanion can still find it again.
func (e *Engine) DismissCompanion(ctx context.Context, username, nickname string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		for i, c := range p.Companions {
			if c.Nickname == nickname {
				p.Companions[i].Following = false
				return putPlayer(tx, p)
			}
		}
		return domainErr(ErrNotFound, "%s", nickname)
	})
}

// FeedCompanion consumes one unit of item from the player's inventory
// and raises the named companion's loyalty, capped at maxLoyalty.
func (e *Engine) FeedCompanion(ctx context.Context, username, nickname, item string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		idx := -1
		for i, c := range p.Companions {
			if c.Nickname == nickname {
				idx = i
				break
			}
		}
		if idx < 0 {
			return domainErr(ErrNotFound, "%s", nickname)
		}
		if p.Inventory[item] <= 0 {
			return domainErr(ErrItemRequired, "%s", item)
		}
		p.Inventory[item]--
		if p.Inventory[item] == 0 {
			delete(p.Inventory, item)
		}
		p.Companions[idx].Loyalty += 10
		if p.Companions[idx].Loyalty > maxLoyalty {
			p.Companions[idx].Loyalty = maxLoyalty
		}
		return putPlayer(tx, p)
	})
}
