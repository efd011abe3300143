package world

import (
	"context"
	"time"

	"github.com/meshbbs/core/internal/store"
)

// DefaultRoomID is where a new account starts (§4.4's registration
// flow) and where an evicted occupant is sent — the one room every
// seeded world is guaranteed to have.
const DefaultRoomID = "lobby"

// MovePlayer resolves an exit on the player's current room and, on
// success, updates their current_room, fires ON_EXIT/ON_ENTER triggers,
// and evaluates VisitLocation objectives (§4.4).
func (e *Engine) MovePlayer(ctx context.Context, username, dir string) error {
	var notices []string
	var destRoomID string
	err := e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		oldRoom, err := getRoom(tx, p.CurrentRoom)
		if err != nil {
			return err
		}
		exit, ok := oldRoom.Exits[dir]
		if !ok {
			return domainErr(ErrNoSuchExit, "%s", dir)
		}
		newRoom, err := getRoom(tx, exit.Dest)
		if err != nil {
			return err
		}
		if exit.Locked {
			return domainErr(ErrLocked, "%s", dir)
		}
		if newRoom.HasFlag(FlagDark) && !playerHasLight(tx, p) {
			return domainErr(ErrMovementRestricted, "dark room requires a light source")
		}

		p.CurrentRoom = newRoom.ID
		destRoomID = newRoom.ID
		if p.RoomsVisited == nil {
			p.RoomsVisited = map[string]bool{}
		}
		p.RoomsVisited[newRoom.ID] = true

		fireObjectTriggers(tx, oldRoom.Objects, TriggerOnExit, p, e)
		fireObjectTriggers(tx, newRoom.Objects, TriggerOnEnter, p, e)

		ns, err := evaluateObjective(tx, p, ObjectiveVisitLocation, newRoom.ID, 1, e)
		if err != nil {
			return err
		}
		notices = append(notices, ns...)

		ns, err = evaluateAchievements(tx, p)
		if err != nil {
			return err
		}
		notices = append(notices, ns...)

		return putPlayer(tx, p)
	})
	for _, n := range notices {
		e.notify(username, n)
	}
	if err == nil {
		e.emitRoomVisited(username, destRoomID)
	}
	return err
}

func playerHasLight(tx *store.Tx, p *Player) bool {
	for objID := range p.Inventory {
		var obj Object
		found, err := tx.Get(BucketObjects, objID, &obj)
		if err == nil && found && obj.LightSource {
			return true
		}
	}
	return false
}

// fireObjectTriggers runs the named trigger's Action for every object
// in ids that declares a binding for it. Action effects on the player
// are applied; errors are swallowed without logging (a malformed
// trigger must never break movement).
func fireObjectTriggers(tx *store.Tx, ids []string, kind TriggerKind, p *Player, e *Engine) {
	for _, id := range ids {
		var obj Object
		found, err := tx.Get(BucketObjects, id, &obj)
		if err != nil || !found {
			continue
		}
		action, ok := obj.Triggers[kind]
		if !ok {
			continue
		}
		applyAction(tx, p, action, e)
	}
}

func applyAction(tx *store.Tx, p *Player, a Action, e *Engine) {
	if a.GrantCurrency != 0 {
		p.Wallet += a.GrantCurrency
	}
	for _, item := range a.GrantItems {
		if p.Inventory == nil {
			p.Inventory = map[string]int{}
		}
		p.Inventory[item]++
	}
	if a.SetFlag != "" {
		if p.UnlockedTitles == nil {
			p.UnlockedTitles = map[string]bool{}
		}
		p.UnlockedTitles[a.SetFlag] = true
	}
	if a.GrantAchievement != "" {
		grantAchievement(tx, p, a.GrantAchievement, e)
	}
	if a.Message != "" && e != nil {
		e.notify(p.Username, a.Message)
	}
}

func grantAchievement(tx *store.Tx, p *Player, id string, e *Engine) {
	if p.Achievements == nil {
		p.Achievements = map[string]time.Time{}
	}
	if _, already := p.Achievements[id]; already {
		return
	}
	var ach Achievement
	found, err := tx.Get(BucketAchievements, id, &ach)
	if err != nil || !found {
		return
	}
	p.Achievements[id] = time.Now()
	p.Wallet += ach.Reward.Currency
	for _, unlock := range ach.Reward.Unlocks {
		if p.UnlockedTitles == nil {
			p.UnlockedTitles = map[string]bool{}
		}
		p.UnlockedTitles[unlock] = true
	}
	if e != nil {
		e.notify(p.Username, "Achievement unlocked: "+ach.Title)
	}
}
