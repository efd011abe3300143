package world

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meshbbs/core/internal/store"
)

// RentHouse allocates a tenancy from a template, debiting the price
// from the player's wallet. The tenancy's room is the template's room
// id, shared by every tenancy of that template. Entry to that room is
// not restricted: MovePlayer does not consult the guest ACL.
func (e *Engine) RentHouse(ctx context.Context, username, templateID string) (string, error) {
	var houseID string
	err := e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		if p.HouseID != "" {
			return domainErr(ErrCapacityFull, "already renting a house")
		}
		var tmpl HousingTemplate
		found, err := tx.Get(BucketHousingTemplates, templateID, &tmpl)
		if err != nil {
			return internalErr(err)
		}
		if !found {
			return domainErr(ErrNotFound, "%s", templateID)
		}
		if tmpl.Available <= 0 {
			return domainErr(ErrCapacityFull, "%s", templateID)
		}
		if p.Wallet < tmpl.Price {
			return domainErr(ErrInsufficientFunds, "need %d, have %d", tmpl.Price, p.Wallet)
		}

		p.Wallet -= tmpl.Price
		h := Housing{
			ID:         uuid.NewString(),
			TemplateID: templateID,
			Tenant:     p.Username,
			RoomID:     tmpl.RoomID,
			CreatedAt:  time.Now(),
		}
		p.HouseID = h.ID
		if err := putPlayer(tx, p); err != nil {
			return err
		}
		if err := tx.Put(BucketHousing, h.ID, h); err != nil {
			return internalErr(err)
		}
		tmpl.Available--
		if err := tx.Put(BucketHousingTemplates, templateID, tmpl); err != nil {
			return internalErr(err)
		}
		houseID = h.ID
		return appendWAL(tx, WALEntry{
			At:     time.Now(),
			TxType: "shop",
			From:   p.Username,
			Amount: tmpl.Price,
			Reason: "rent_house:" + templateID,
		})
	})
	return houseID, err
}

// AbandonHouse releases a tenancy: stored items return to the tenant's
// own inventory, any occupant still standing in the house room is
// evicted to DefaultRoomID, and the unit itself becomes available
// again (§4.4's abandon_house row, in full).
func (e *Engine) AbandonHouse(ctx context.Context, username string) error {
	var evicted []string
	err := e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		if p.HouseID == "" {
			return domainErr(ErrNotFound, "no active tenancy")
		}
		var h Housing
		found, err := tx.Get(BucketHousing, p.HouseID, &h)
		if err != nil {
			return internalErr(err)
		}
		if !found {
			return domainErr(ErrNotFound, "%s", p.HouseID)
		}

		if p.Inventory == nil {
			p.Inventory = map[string]int{}
		}
		for objID, count := range h.Inventory {
			p.Inventory[objID] += count
		}
		p.HouseID = ""
		if err := putPlayer(tx, p); err != nil {
			return err
		}
		if err := tx.Delete(BucketHousing, h.ID); err != nil {
			return internalErr(err)
		}
		var tmpl HousingTemplate
		found, err = tx.Get(BucketHousingTemplates, h.TemplateID, &tmpl)
		if err != nil {
			return internalErr(err)
		}
		if found {
			tmpl.Available++
			if err := tx.Put(BucketHousingTemplates, h.TemplateID, tmpl); err != nil {
				return internalErr(err)
			}
		}

		evicted, err = evictOccupants(tx, h.RoomID, p.Username)
		return err
	})
	for _, occupant := range evicted {
		e.notify(occupant, "The house you were in has been abandoned; you've been moved to the lobby.")
	}
	return err
}

// evictOccupants moves every player (other than the departing tenant)
// still standing in roomID to DefaultRoomID, returning their usernames
// so the caller can notify them after the transaction commits.
func evictOccupants(tx *store.Tx, roomID, tenant string) ([]string, error) {
	var occupants []*Player
	err := tx.ScanPrefix(BucketPlayers, "", func(key string, value []byte) error {
		var p Player
		if err := unmarshalInto(value, &p); err != nil {
			return internalErr(err)
		}
		if p.CurrentRoom == roomID && !strings.EqualFold(p.Username, tenant) {
			occupants = append(occupants, &p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	var names []string
	for _, p := range occupants {
		p.CurrentRoom = DefaultRoomID
		if err := putPlayer(tx, p); err != nil {
			return nil, err
		}
		names = append(names, p.Username)
	}
	return names, nil
}

// GrantHouseGuest adds guest to the tenant's guest ACL. The ACL is
// stored only: no operation checks it, and there is no deposit or
// withdraw operation for the house inventory.
func (e *Engine) GrantHouseGuest(ctx context.Context, tenant, guest string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, tenant)
		if err != nil {
			return err
		}
		if p.HouseID == "" {
			return domainErr(ErrNotFound, "no active tenancy")
		}
		var h Housing
		found, err := tx.Get(BucketHousing, p.HouseID, &h)
		if err != nil {
			return internalErr(err)
		}
		if !found {
			return domainErr(ErrNotFound, "%s", p.HouseID)
		}
		if h.GuestACL == nil {
			h.GuestACL = map[string]bool{}
		}
		h.GuestACL[key(guest)] = true
		return tx.Put(BucketHousing, h.ID, h)
	})
}
