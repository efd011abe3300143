package world

import (
	"context"
	"strings"

	"github.com/meshbbs/core/internal/store"
)

// resolveObjectInRoom finds an object among ids by case-insensitive
// prefix match on name, returning ErrNotFound if none match and
// ErrAmbiguous if more than one does (§4.4: "disambiguation on
// multiple hits").
func resolveObjectInRoom(tx *store.Tx, ids []string, name string) (*Object, error) {
	name = strings.ToLower(name)
	var match *Object
	for _, id := range ids {
		var obj Object
		found, err := tx.Get(BucketObjects, id, &obj)
		if err != nil {
			return nil, internalErr(err)
		}
		if !found {
			continue
		}
		if strings.HasPrefix(strings.ToLower(obj.Name), name) {
			if match != nil {
				return nil, domainErr(ErrAmbiguous, "%s", name)
			}
			o := obj
			match = &o
		}
	}
	if match == nil {
		return nil, domainErr(ErrNotFound, "%s", name)
	}
	return match, nil
}

// Take transfers an object named objName from the player's current
// room into their inventory.
func (e *Engine) Take(ctx context.Context, username, objName string) error {
	var notices []string
	err := e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		room, err := getRoom(tx, p.CurrentRoom)
		if err != nil {
			return err
		}
		obj, err := resolveObjectInRoom(tx, room.Objects, objName)
		if err != nil {
			return err
		}
		if !obj.Takeable {
			return domainErr(ErrNotTakeable, "%s", obj.Name)
		}

		room.Objects = removeString(room.Objects, obj.ID)
		if err := tx.Put(BucketRooms, room.ID, room); err != nil {
			return internalErr(err)
		}
		obj.RoomOwner = ""
		obj.PlayerOwner = p.Username
		if err := tx.Put(BucketObjects, obj.ID, obj); err != nil {
			return internalErr(err)
		}
		if p.Inventory == nil {
			p.Inventory = map[string]int{}
		}
		p.Inventory[obj.ID]++

		applyAction(tx, p, obj.Triggers[TriggerOnTake], e)
		ns, err := evaluateObjective(tx, p, ObjectiveCollectItem, obj.ID, 1, e)
		if err != nil {
			return err
		}
		notices = append(notices, ns...)
		return putPlayer(tx, p)
	})
	for _, n := range notices {
		e.notify(username, n)
	}
	return err
}

// Drop is the inverse of Take: it returns an owned object to the
// player's current room.
func (e *Engine) Drop(ctx context.Context, username, objName string) error {
	return e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		objID, obj, err := resolveOwnedObject(tx, p, objName)
		if err != nil {
			return err
		}
		room, err := getRoom(tx, p.CurrentRoom)
		if err != nil {
			return err
		}

		delete(p.Inventory, objID)
		if err := putPlayer(tx, p); err != nil {
			return err
		}
		obj.PlayerOwner = ""
		obj.RoomOwner = room.ID
		if err := tx.Put(BucketObjects, obj.ID, obj); err != nil {
			return internalErr(err)
		}
		room.Objects = append(room.Objects, obj.ID)
		if err := tx.Put(BucketRooms, room.ID, room); err != nil {
			return internalErr(err)
		}
		applyAction(tx, p, obj.Triggers[TriggerOnDrop], e)
		return nil
	})
}

// resolveOwnedObject finds an object the player is carrying by
// case-insensitive prefix match on name.
func resolveOwnedObject(tx *store.Tx, p *Player, name string) (string, *Object, error) {
	name = strings.ToLower(name)
	var matchID string
	var match *Object
	for id := range p.Inventory {
		var obj Object
		found, err := tx.Get(BucketObjects, id, &obj)
		if err != nil {
			return "", nil, internalErr(err)
		}
		if !found {
			continue
		}
		if strings.HasPrefix(strings.ToLower(obj.Name), name) {
			if match != nil {
				return "", nil, domainErr(ErrAmbiguous, "%s", name)
			}
			o := obj
			matchID, match = id, &o
		}
	}
	if match == nil {
		return "", nil, domainErr(ErrNotFound, "%s", name)
	}
	return matchID, match, nil
}

// Use decrements an object's uses_remaining, consuming it when it
// reaches zero, and fires ON_USE.
func (e *Engine) Use(ctx context.Context, username, objName string) error {
	var notices []string
	err := e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		objID, obj, err := resolveOwnedObject(tx, p, objName)
		if err != nil {
			return err
		}

		applyAction(tx, p, obj.Triggers[TriggerOnUse], e)
		ns, err := evaluateObjective(tx, p, ObjectiveUseItem, objID, 1, e)
		if err != nil {
			return err
		}
		notices = append(notices, ns...)

		if obj.UsesRemaining != nil {
			*obj.UsesRemaining--
			if *obj.UsesRemaining <= 0 {
				delete(p.Inventory, objID)
				if err := tx.Delete(BucketObjects, objID); err != nil {
					return internalErr(err)
				}
			} else if err := tx.Put(BucketObjects, objID, obj); err != nil {
				return internalErr(err)
			}
		}
		return putPlayer(tx, p)
	})
	for _, n := range notices {
		e.notify(username, n)
	}
	return err
}

// Examine returns an object's description; if the object participates
// in an in-progress ExamineSequence objective, it advances/resets that
// objective's pointer per §4.4.
func (e *Engine) Examine(ctx context.Context, username, objName string) (string, error) {
	var desc string
	var notices []string
	err := e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		room, err := getRoom(tx, p.CurrentRoom)
		if err != nil {
			return err
		}
		obj, err := resolveVisibleObject(tx, p, room, objName)
		if err != nil {
			return err
		}
		desc = obj.Description
		applyAction(tx, p, obj.Triggers[TriggerOnLook], e)

		ns, err := AdvanceExamineSequence(tx, p, obj.ID, e)
		if err != nil {
			return err
		}
		notices = append(notices, ns...)
		return putPlayer(tx, p)
	})
	for _, n := range notices {
		e.notify(username, n)
	}
	return desc, err
}

func resolveVisibleObject(tx *store.Tx, p *Player, room *Room, name string) (*Object, error) {
	_, obj, err := resolveOwnedObject(tx, p, name)
	if err == nil {
		return obj, nil
	}
	if de, ok := AsDomainError(err); ok && de.Kind == ErrNotFound {
		return resolveObjectInRoom(tx, room.Objects, name)
	}
	return nil, err
}

func removeString(ss []string, v string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
