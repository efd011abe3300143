package world

import (
	"context"
	_ "embed"
	"encoding/json"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/meshbbs/core/internal/store"
)

//go:embed seed/content.yaml
var seedYAML []byte

// seedDoc mirrors seed/content.yaml's top-level shape. Sections are
// decoded generically and then round-tripped through encoding/json
// into the typed slices below, since the domain structs already carry
// the snake_case `json` tags the YAML uses and duplicating them as
// `yaml` tags would be pure upkeep.
type seedDoc struct {
	Rooms            []Room
	NPCs             []NPC
	Quests           []Quest
	Objects          []Object
	Achievements     []Achievement
	HousingTemplates []HousingTemplate
	Copy             map[string]string
}

func decodeSeedDoc(raw []byte) (*seedDoc, error) {
	var sections map[string]any
	if err := yaml.Unmarshal(raw, &sections); err != nil {
		return nil, err
	}
	var doc seedDoc
	for name, target := range map[string]any{
		"rooms":             &doc.Rooms,
		"npcs":              &doc.NPCs,
		"quests":            &doc.Quests,
		"objects":           &doc.Objects,
		"achievements":      &doc.Achievements,
		"housing_templates": &doc.HousingTemplates,
		"copy":              &doc.Copy,
	} {
		section, ok := sections[name]
		if !ok {
			continue
		}
		data, err := json.Marshal(section)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, target); err != nil {
			return nil, err
		}
	}
	return &doc, nil
}

// Seed loads the embedded world content into the store. Every stage
// checks existence by id before inserting, so seeding an
// already-populated store is a no-op — content added in a later
// release back-fills automatically on the next startup.
func Seed(s *store.Store, log *zap.Logger) error {
	for _, b := range AllBuckets {
		if err := s.EnsureBucket(b); err != nil {
			return err
		}
	}

	doc, err := decodeSeedDoc(seedYAML)
	if err != nil {
		return err
	}

	return s.Transaction(func(tx *store.Tx) error {
		n := 0
		for _, r := range doc.Rooms {
			inserted, err := putIfAbsent(tx, BucketRooms, r.ID, r)
			if err != nil {
				return err
			}
			if inserted {
				n++
			}
		}
		for _, o := range doc.Objects {
			if _, err := putIfAbsent(tx, BucketObjects, o.ID, o); err != nil {
				return err
			}
		}
		for _, npc := range doc.NPCs {
			if _, err := putIfAbsent(tx, BucketNPCs, npc.ID, npc); err != nil {
				return err
			}
		}
		for _, q := range doc.Quests {
			if _, err := putIfAbsent(tx, BucketQuests, q.ID, q); err != nil {
				return err
			}
		}
		for _, a := range doc.Achievements {
			if _, err := putIfAbsent(tx, BucketAchievements, a.ID, a); err != nil {
				return err
			}
		}
		for _, h := range doc.HousingTemplates {
			if _, err := putIfAbsent(tx, BucketHousingTemplates, h.ID, h); err != nil {
				return err
			}
		}
		for k, v := range doc.Copy {
			if _, err := putIfAbsent(tx, BucketMeta, "copy:"+k, v); err != nil {
				return err
			}
		}
		log.Info("world seeded", zap.Int("new_rooms", n))
		return nil
	})
}

func putIfAbsent(tx *store.Tx, bucket, id string, value any) (bool, error) {
	var existing any
	found, err := tx.Get(bucket, id, &existing)
	if err != nil {
		return false, err
	}
	if found {
		return false, nil
	}
	if err := tx.Put(bucket, id, value); err != nil {
		return false, err
	}
	return true, nil
}

// CopyString fetches a seeded display string by key (welcome banners,
// goodbye text) for use by the session/UI layer.
func CopyString(ctx context.Context, async *store.Async, k string) (string, error) {
	var s string
	err := async.View(ctx, func(tx *store.Tx) error {
		_, err := tx.Get(BucketMeta, "copy:"+k, &s)
		return err
	})
	return s, err
}
