// Package world implements the domain model and transactional
// operations of the virtual world: rooms, players, objects, NPCs,
// quests, achievements, mail, bulletins, housing, and companions.
//
// Every exported operation on *Engine is one store transaction. Global
// state is never held in mutable package-level variables; the Engine
// is an immutable handle threaded into every caller, and all mutation
// goes through a transaction function (§9's "global state" note).
package world

import "time"

// Role is a player's authorization level.
type Role int

const (
	RoleGuest     Role = 0
	RoleUser      Role = 1
	RoleModerator Role = 5
	RoleAdmin     Role = 9
	RoleSysop     Role = 10
)

// Player is the persisted record for one account.
type Player struct {
	Username     string            `json:"username"`
	PasswordHash string            `json:"password_hash,omitempty"`
	Salt         string            `json:"salt,omitempty"`
	Role         Role              `json:"role"`
	NodeID       uint32            `json:"node_id,omitempty"` // 0 = unbound
	CreatedAt    time.Time         `json:"created_at"`
	LastSeenAt   time.Time         `json:"last_seen_at"`
	PostCount    int               `json:"post_count"`
	CurrentRoom  string            `json:"current_room"`
	Wallet       int64             `json:"wallet"`       // base units
	CurrencyTag  string            `json:"currency_tag"` // mode the wallet was last written under; see world.CurrencyRatios
	Inventory    map[string]int    `json:"inventory"`       // object id -> count
	Quests       map[string]*QuestProgress `json:"quests"`  // quest id -> progress
	Achievements map[string]time.Time      `json:"achievements"` // achievement id -> earned at
	EquippedTitle string           `json:"equipped_title,omitempty"`
	UnlockedTitles map[string]bool `json:"unlocked_titles,omitempty"`
	Companions   []Companion       `json:"companions,omitempty"`
	HouseID      string            `json:"house_id,omitempty"`
	RoomsVisited map[string]bool   `json:"rooms_visited,omitempty"`
	FriendsCount int               `json:"friends_count"`
}

// HasNodeBound reports whether the player is currently bound to a
// radio node address.
func (p *Player) HasNodeBound() bool { return p.NodeID != 0 }

// Exit is one directional connection out of a room.
type Exit struct {
	Dest   string `json:"dest"`
	Locked bool   `json:"locked,omitempty"`
}

// RoomFlag is a bit-set membership value on a room.
type RoomFlag string

const (
	FlagSafe          RoomFlag = "Safe"
	FlagIndoor        RoomFlag = "Indoor"
	FlagDark          RoomFlag = "Dark"
	FlagQuestLocation RoomFlag = "QuestLocation"
	FlagShop          RoomFlag = "Shop"
	FlagModerated     RoomFlag = "Moderated"
)

// Room is a stable location in the world graph.
type Room struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Exits       map[string]Exit   `json:"exits"`
	Flags       map[RoomFlag]bool `json:"flags,omitempty"`
	Capacity    int               `json:"capacity,omitempty"`
	Objects     []string          `json:"objects,omitempty"` // object ids fixed to the room
}

func (r *Room) HasFlag(f RoomFlag) bool { return r.Flags != nil && r.Flags[f] }

// TriggerKind is a tagged variant for object trigger bindings.
type TriggerKind string

const (
	TriggerOnLook  TriggerKind = "ON_LOOK"
	TriggerOnTake  TriggerKind = "ON_TAKE"
	TriggerOnDrop  TriggerKind = "ON_DROP"
	TriggerOnUse   TriggerKind = "ON_USE"
	TriggerOnEnter TriggerKind = "ON_ENTER"
	TriggerOnExit  TriggerKind = "ON_EXIT"
)

// Object is an interactable item, either resting in a room or carried
// by a player — never both (§3 invariant 2).
type Object struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	RoomOwner      string                 `json:"room_owner,omitempty"`
	PlayerOwner    string                 `json:"player_owner,omitempty"`
	Takeable       bool                   `json:"takeable"`
	Weight         int                    `json:"weight,omitempty"`
	UsesRemaining  *int                   `json:"uses_remaining,omitempty"`
	Triggers       map[TriggerKind]Action `json:"triggers,omitempty"`
	QuestItem      bool                   `json:"quest_item,omitempty"`
	LightSource    bool                   `json:"light_source,omitempty"`
}

// Action is a tagged variant for what a trigger or dialogue choice does.
type Action struct {
	GrantCurrency int64    `json:"grant_currency,omitempty"`
	GrantItems    []string `json:"grant_items,omitempty"`
	SetFlag       string   `json:"set_flag,omitempty"`
	GrantAchievement string `json:"grant_achievement,omitempty"`
	AdvanceQuest  string   `json:"advance_quest,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// DialogueChoice is one branch of an NPC dialogue node.
type DialogueChoice struct {
	Label  string   `json:"label"`
	Goto   string   `json:"goto,omitempty"`
	Exit   bool     `json:"exit,omitempty"`
	Guard  *Guard   `json:"guard,omitempty"`
	Action []Action `json:"actions,omitempty"`
}

// Guard gates a dialogue choice's visibility.
type Guard struct {
	RequiresFlag     string `json:"requires_flag,omitempty"`
	RequiresCurrency int64  `json:"requires_currency,omitempty"`
	RequiresQuest    string `json:"requires_quest,omitempty"`
}

// DialogueNode is one point in an NPC's dialogue tree.
type DialogueNode struct {
	ID      string           `json:"id"`
	Text    string           `json:"text"`
	Choices []DialogueChoice `json:"choices"`
}

// NPC is a non-player character fixed to a room with a dialogue tree.
type NPC struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	Description   string                  `json:"description"`
	RoomID        string                  `json:"room_id"`
	Greeting      string                  `json:"greeting"` // dialogue node id
	Dialogue      map[string]DialogueNode `json:"dialogue"`
	QuestIDs      []string                `json:"quest_ids,omitempty"`
}

// ObjectiveKind tags the variant of a quest objective.
type ObjectiveKind string

const (
	ObjectiveTalkToNpc       ObjectiveKind = "TalkToNpc"
	ObjectiveUseItem         ObjectiveKind = "UseItem"
	ObjectiveVisitLocation   ObjectiveKind = "VisitLocation"
	ObjectiveCollectItem     ObjectiveKind = "CollectItem"
	ObjectiveExamineSequence ObjectiveKind = "ExamineSequence"
)

// Objective is one tagged-variant step of a quest.
type Objective struct {
	Kind ObjectiveKind `json:"kind"`

	TargetID string `json:"target_id,omitempty"` // NPC/item/room id for simple kinds
	Count    int    `json:"count,omitempty"`      // CollectItem target count

	Sequence    []string `json:"sequence,omitempty"` // ExamineSequence ordered ids
	ResetOnErr  bool     `json:"reset_on_error,omitempty"`
}

// Reward is granted on quest completion or achievement unlock.
type Reward struct {
	Currency int64    `json:"currency,omitempty"`
	XP       int      `json:"xp,omitempty"`
	Items    []string `json:"items,omitempty"`
	Unlocks  []string `json:"unlocks,omitempty"` // title ids
}

// Quest is a repeatable or one-shot objective chain.
type Quest struct {
	ID                  string      `json:"id"`
	Title               string      `json:"title"`
	Description         string      `json:"description"`
	Objectives          []Objective `json:"objectives"`
	PrerequisiteQuests  []string    `json:"prerequisite_quests,omitempty"`
	Reward              Reward      `json:"reward"`
	Repeatable          bool        `json:"repeatable,omitempty"`
	CompletionDialogue  string      `json:"completion_dialogue,omitempty"`
}

// QuestProgress is one player's per-objective counters for one quest.
type QuestProgress struct {
	ObjectiveCounts []int `json:"objective_counts"` // parallel to Quest.Objectives
	ObjectiveDone   []bool `json:"objective_done"`
	SequenceNext    []int `json:"sequence_next"` // next-expected index per ExamineSequence objective
	Completed       bool  `json:"completed"`
	CompletedAt     time.Time `json:"completed_at,omitempty"`
}

// AchievementCriterion tags the variant of an achievement's unlock rule.
type AchievementCriterion string

const (
	CriterionKills           AchievementCriterion = "kills"
	CriterionRoomsVisited    AchievementCriterion = "rooms_visited"
	CriterionFriends         AchievementCriterion = "friends"
	CriterionQuestsCompleted AchievementCriterion = "quests_completed"
	CriterionCustomTag       AchievementCriterion = "custom_tag"
)

// Achievement is a one-shot unlock evaluated against cumulative counters.
type Achievement struct {
	ID          string               `json:"id"`
	Category    string               `json:"category"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Criterion   AchievementCriterion `json:"criterion"`
	Threshold   int                  `json:"threshold"`
	CustomTag   string               `json:"custom_tag,omitempty"`
	Reward      Reward               `json:"reward"`
}

// Companion is a pet/ally bound to one owner.
type Companion struct {
	Species   string `json:"species"`
	Nickname  string `json:"nickname"`
	Loyalty   int    `json:"loyalty"` // 0-100
	Following bool   `json:"following"`
}

// Mail is one message in the store-and-forward mail system.
type Mail struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
	Read      bool      `json:"read"`
}

// Bulletin is one post on a board.
type Bulletin struct {
	ID       string    `json:"id"`
	Board    string    `json:"board"`
	Author   string    `json:"author"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	PostedAt time.Time `json:"posted_at"`
	Pinned   bool      `json:"pinned"`
	Locked   bool      `json:"locked"`
}

// HousingTemplate describes a rentable house type.
type HousingTemplate struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	RoomID    string `json:"room_id"` // room every tenancy of this template uses
	Available int    `json:"available"`
}

// Housing is one allocated tenancy.
type Housing struct {
	ID         string          `json:"id"`
	TemplateID string          `json:"template_id"`
	Tenant     string          `json:"tenant"`
	RoomID     string          `json:"room_id"`
	GuestACL   map[string]bool `json:"guest_acl,omitempty"`
	Inventory  map[string]int  `json:"inventory,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AuditEntry is one append-only security-log record (§4.6).
type AuditEntry struct {
	ID        string    `json:"id"`
	At        time.Time `json:"at"`
	Actor     string    `json:"actor"`
	Subject   string    `json:"subject"`
	Action    string    `json:"action"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
}

// WALEntry is one append-only economic transaction log record,
// written in the same transaction as the balance change it records
// (§4.4 [EXPANDED], testable property 3).
type WALEntry struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	TxType   string    `json:"tx_type"` // "transfer", "convert", "trade", "shop"
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Amount   int64     `json:"amount"`
	Reason   string    `json:"reason,omitempty"`
}

// Trade is an in-progress two-party escrow.
type Trade struct {
	ID          string         `json:"id"`
	PlayerA     string         `json:"player_a"`
	PlayerB     string         `json:"player_b"`
	OfferA      TradeOffer     `json:"offer_a"`
	OfferB      TradeOffer     `json:"offer_b"`
	AcceptedA   bool           `json:"accepted_a"`
	AcceptedB   bool           `json:"accepted_b"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TradeOffer is one side's staged contribution to a Trade.
type TradeOffer struct {
	Currency int64          `json:"currency,omitempty"`
	Items    map[string]int `json:"items,omitempty"`
}
