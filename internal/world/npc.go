package world

import (
	"context"
	"fmt"
	"strings"

	"github.com/meshbbs/core/internal/store"
)

// DialogueView is what the session layer renders for one step of a
// conversation: the node's text plus the choices currently visible to
// this player (guard-filtered).
type DialogueView struct {
	NodeID  string
	Text    string
	Choices []DialogueChoice // only guard-passing choices, in declared order
}

// findNPCInRoom resolves an NPC by case-insensitive prefix match among
// the NPCs fixed to room id.
func findNPCInRoom(tx *store.Tx, roomID, name string) (*NPC, error) {
	name = strings.ToLower(name)
	var match *NPC
	err := tx.ScanPrefix(BucketNPCs, "", func(key string, value []byte) error {
		var npc NPC
		if err := unmarshalInto(value, &npc); err != nil {
			return internalErr(err)
		}
		if npc.RoomID != roomID {
			return nil
		}
		if strings.HasPrefix(strings.ToLower(npc.Name), name) {
			if match != nil {
				return domainErr(ErrAmbiguous, "%s", name)
			}
			n := npc
			match = &n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, domainErr(ErrNotFound, "%s", name)
	}
	return match, nil
}

func passesGuard(p *Player, g *Guard) bool {
	if g == nil {
		return true
	}
	if g.RequiresFlag != "" && !p.UnlockedTitles[g.RequiresFlag] {
		return false
	}
	if g.RequiresCurrency != 0 && p.Wallet < g.RequiresCurrency {
		return false
	}
	if g.RequiresQuest != "" {
		progress, ok := p.Quests[g.RequiresQuest]
		if !ok || !progress.Completed {
			return false
		}
	}
	return true
}

func visibleChoices(p *Player, node DialogueNode) []DialogueChoice {
	var out []DialogueChoice
	for _, c := range node.Choices {
		if passesGuard(p, c.Guard) {
			out = append(out, c)
		}
	}
	return out
}

// TalkStart opens a conversation with an NPC in the player's current
// room, returning the greeting node. It also advances any TalkToNpc
// objective targeting this NPC.
func (e *Engine) TalkStart(ctx context.Context, username, npcName string) (*DialogueView, error) {
	var view *DialogueView
	var notices []string
	err := e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		npc, err := findNPCInRoom(tx, p.CurrentRoom, npcName)
		if err != nil {
			return err
		}
		node, ok := npc.Dialogue[npc.Greeting]
		if !ok {
			return internalErr(fmt.Errorf("npc %s missing greeting node %s", npc.ID, npc.Greeting))
		}
		view = &DialogueView{NodeID: node.ID, Text: node.Text, Choices: visibleChoices(p, node)}

		ns, err := evaluateObjective(tx, p, ObjectiveTalkToNpc, npc.ID, 1, e)
		if err != nil {
			return err
		}
		notices = append(notices, ns...)
		return putPlayer(tx, p)
	})
	for _, n := range notices {
		e.notify(username, n)
	}
	return view, err
}

// TalkChoose applies the effects of choosing index idx among the
// currently visible choices of npc's node nodeID, returning the next
// node (or nil if the choice ends the conversation).
func (e *Engine) TalkChoose(ctx context.Context, username, npcName, nodeID string, idx int) (*DialogueView, error) {
	var view *DialogueView
	var notices []string
	err := e.withTx(ctx, func(tx *store.Tx) error {
		p, err := getPlayer(tx, username)
		if err != nil {
			return err
		}
		npc, err := findNPCInRoom(tx, p.CurrentRoom, npcName)
		if err != nil {
			return err
		}
		node, ok := npc.Dialogue[nodeID]
		if !ok {
			return domainErr(ErrNotFound, "dialogue node %s", nodeID)
		}
		choices := visibleChoices(p, node)
		if idx < 0 || idx >= len(choices) {
			return domainErr(ErrNotFound, "choice %d", idx)
		}
		choice := choices[idx]

		for _, a := range choice.Action {
			applyAction(tx, p, a, e)
			if a.AdvanceQuest != "" {
				if progress, ok := p.Quests[a.AdvanceQuest]; ok && !progress.Completed {
					if q, found, err := getQuest(tx, a.AdvanceQuest); err == nil && found {
						if allDone(progress) {
							n, err := completeQuest(tx, p, a.AdvanceQuest, q, progress, e)
							if err != nil {
								return err
							}
							notices = append(notices, n)
						}
					}
				}
			}
		}

		if choice.Exit || choice.Goto == "" {
			return putPlayer(tx, p)
		}
		next, ok := npc.Dialogue[choice.Goto]
		if !ok {
			return internalErr(fmt.Errorf("npc %s dialogue references missing node %s", npc.ID, choice.Goto))
		}
		view = &DialogueView{NodeID: next.ID, Text: next.Text, Choices: visibleChoices(p, next)}
		return putPlayer(tx, p)
	})
	for _, n := range notices {
		e.notify(username, n)
	}
	return view, err
}

func getQuest(tx *store.Tx, id string) (*Quest, bool, error) {
	var q Quest
	found, err := tx.Get(BucketQuests, id, &q)
	if err != nil {
		return nil, false, internalErr(err)
	}
	return &q, found, nil
}
