package world

// Bucket names are the store's disjoint logical tables (§3).
const (
	BucketPlayers          = "players"
	BucketRooms            = "rooms"
	BucketObjects          = "objects"
	BucketNPCs             = "npcs"
	BucketQuests           = "quests"
	BucketAchievements     = "achievements"
	BucketMail             = "mail"
	BucketMailByRecipient  = "mail_by_recipient"
	BucketBulletins        = "bulletins"
	BucketBulletinsByBoard = "bulletins_by_board"
	BucketHousingTemplates = "housing_templates"
	BucketHousing          = "housing"
	BucketTrades           = "trades"
	BucketAudit            = "audit_log"
	BucketWAL              = "economic_wal"
	BucketNodeDirectory    = "node_directory"
	BucketPlayerByNode     = "player_by_node"
	BucketMeta             = "meta" // seeding/version markers
)

// AllBuckets lists every logical table, used by seeding to ensure each
// exists before first use.
var AllBuckets = []string{
	BucketPlayers, BucketRooms, BucketObjects, BucketNPCs, BucketQuests,
	BucketAchievements, BucketMail, BucketMailByRecipient, BucketBulletins,
	BucketBulletinsByBoard, BucketHousingTemplates, BucketHousing,
	BucketTrades, BucketAudit, BucketWAL, BucketNodeDirectory,
	BucketPlayerByNode, BucketMeta,
}
