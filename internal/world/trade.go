package world

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meshbbs/core/internal/store"
)

// ProposeTrade opens a two-party escrow between playerA and playerB.
// Neither side's items or currency move until both have accepted
// identical, final offers (AcceptTrade).
func (e *Engine) ProposeTrade(ctx context.Context, playerA, playerB string) (string, error) {
	if lower(playerA) == lower(playerB) {
		return "", domainErr(ErrSelfTransfer, "%s", playerA)
	}
	var tradeID string
	err := e.withTx(ctx, func(tx *store.Tx) error {
		if _, err := getPlayer(tx, playerA); err != nil {
			return err
		}
		if _, err := getPlayer(tx, playerB); err != nil {
			return err
		}
		t := Trade{
			ID:        uuid.NewString(),
			PlayerA:   playerA,
			PlayerB:   playerB,
			CreatedAt: time.Now(),
		}
		tradeID = t.ID
		return tx.Put(BucketTrades, t.ID, t)
	})
	return tradeID, err
}

// SetTradeOffer stages one side's contribution, clearing any prior
// acceptances on both sides — changing an offer invalidates consent.
func (e *Engine) SetTradeOffer(ctx context.Context, tradeID, username string, offer TradeOffer) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		t, err := getTrade(tx, tradeID)
		if err != nil {
			return err
		}
		switch {
		case lower(username) == lower(t.PlayerA):
			t.OfferA = offer
		case lower(username) == lower(t.PlayerB):
			t.OfferB = offer
		default:
			return domainErr(ErrForbidden, "%s is not party to trade %s", username, tradeID)
		}
		t.AcceptedA = false
		t.AcceptedB = false
		return tx.Put(BucketTrades, t.ID, t)
	})
}

// AcceptTrade records username's consent to the current offers. When
// both sides have accepted, the escrow resolves atomically: currency
// and items swap hands and the trade record is deleted.
func (e *Engine) AcceptTrade(ctx context.Context, tradeID, username string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		t, err := getTrade(tx, tradeID)
		if err != nil {
			return err
		}
		switch {
		case lower(username) == lower(t.PlayerA):
			t.AcceptedA = true
		case lower(username) == lower(t.PlayerB):
			t.AcceptedB = true
		default:
			return domainErr(ErrForbidden, "%s is not party to trade %s", username, tradeID)
		}
		if !t.AcceptedA || !t.AcceptedB {
			return tx.Put(BucketTrades, t.ID, t)
		}
		return resolveTrade(tx, t)
	})
}

// RejectTrade cancels an in-progress escrow without moving anything.
func (e *Engine) RejectTrade(ctx context.Context, tradeID, username string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		t, err := getTrade(tx, tradeID)
		if err != nil {
			return err
		}
		if lower(username) != lower(t.PlayerA) && lower(username) != lower(t.PlayerB) {
			return domainErr(ErrForbidden, "%s is not party to trade %s", username, tradeID)
		}
		return tx.Delete(BucketTrades, t.ID)
	})
}

func getTrade(tx *store.Tx, tradeID string) (*Trade, error) {
	var t Trade
	found, err := tx.Get(BucketTrades, tradeID, &t)
	if err != nil {
		return nil, internalErr(err)
	}
	if !found {
		return nil, domainErr(ErrNotFound, "%s", tradeID)
	}
	return &t, nil
}

func resolveTrade(tx *store.Tx, t *Trade) error {
	a, err := getPlayer(tx, t.PlayerA)
	if err != nil {
		return err
	}
	b, err := getPlayer(tx, t.PlayerB)
	if err != nil {
		return err
	}
	if a.Wallet < t.OfferA.Currency {
		return domainErr(ErrInsufficientFunds, "%s", t.PlayerA)
	}
	if b.Wallet < t.OfferB.Currency {
		return domainErr(ErrInsufficientFunds, "%s", t.PlayerB)
	}
	for item, count := range t.OfferA.Items {
		if a.Inventory[item] < count {
			return domainErr(ErrItemRequired, "%s lacks %d x %s", t.PlayerA, count, item)
		}
	}
	for item, count := range t.OfferB.Items {
		if b.Inventory[item] < count {
			return domainErr(ErrItemRequired, "%s lacks %d x %s", t.PlayerB, count, item)
		}
	}

	moveItems(a, b, t.OfferA.Items)
	moveItems(b, a, t.OfferB.Items)
	a.Wallet = a.Wallet - t.OfferA.Currency + t.OfferB.Currency
	b.Wallet = b.Wallet - t.OfferB.Currency + t.OfferA.Currency

	if err := putPlayer(tx, a); err != nil {
		return err
	}
	if err := putPlayer(tx, b); err != nil {
		return err
	}
	if t.OfferA.Currency != 0 || t.OfferB.Currency != 0 {
		if err := appendWAL(tx, WALEntry{
			At:     time.Now(),
			TxType: "trade",
			From:   t.PlayerA,
			To:     t.PlayerB,
			Amount: t.OfferA.Currency - t.OfferB.Currency,
			Reason: "trade:" + t.ID,
		}); err != nil {
			return err
		}
	}
	return tx.Delete(BucketTrades, t.ID)
}

func moveItems(from, to *Player, items map[string]int) {
	if len(items) == 0 {
		return
	}
	if to.Inventory == nil {
		to.Inventory = map[string]int{}
	}
	for item, count := range items {
		from.Inventory[item] -= count
		if from.Inventory[item] <= 0 {
			delete(from.Inventory, item)
		}
		to.Inventory[item] += count
	}
}
