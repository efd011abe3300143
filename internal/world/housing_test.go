package world

import "testing"

func seedHousingTemplate(t *testing.T, e *Engine) {
	seedRoom(t, e, Room{ID: "studio", Name: "Studio"})
	seedRoom(t, e, Room{ID: DefaultRoomID, Name: "Lobby"})
	mustPut(t, e, BucketHousingTemplates, "tmpl1", HousingTemplate{
		ID: "tmpl1", Name: "Studio", Price: 500, RoomID: "studio", Available: 2,
	})
}

func TestRentHouseDebitsWalletAndDecrementsAvailability(t *testing.T) {
	e := newTestEngine(t)
	seedHousingTemplate(t, e)
	a := seedPlayer(t, e, "alice", "a")
	a.Wallet = 1000
	mustPut(t, e, BucketPlayers, key("alice"), a)

	houseID, err := e.RentHouse(ctx(), "alice", "tmpl1")
	if err != nil {
		t.Fatalf("rent: %v", err)
	}
	if houseID == "" {
		t.Fatalf("expected a house id")
	}
	p := loadPlayer(t, e, "alice")
	if p.Wallet != 500 {
		t.Fatalf("expected wallet debited to 500, got %d", p.Wallet)
	}
	if p.HouseID != houseID {
		t.Fatalf("expected player.house_id set")
	}

	var tmpl HousingTemplate
	e.async.Get(ctx(), BucketHousingTemplates, "tmpl1", &tmpl)
	if tmpl.Available != 1 {
		t.Fatalf("expected availability decremented to 1, got %d", tmpl.Available)
	}
}

func TestRentHouseInsufficientFunds(t *testing.T) {
	e := newTestEngine(t)
	seedHousingTemplate(t, e)
	seedPlayer(t, e, "alice", "a")

	_, err := e.RentHouse(ctx(), "alice", "tmpl1")
	de, ok := AsDomainError(err)
	if !ok || de.Kind != ErrInsufficientFunds {
		t.Fatalf("expected InsufficientFunds, got %v", err)
	}
}

func TestAbandonHouseReturnsItemsToTenant(t *testing.T) {
	e := newTestEngine(t)
	seedHousingTemplate(t, e)
	a := seedPlayer(t, e, "alice", "a")
	a.Wallet = 1000
	mustPut(t, e, BucketPlayers, key("alice"), a)

	houseID, err := e.RentHouse(ctx(), "alice", "tmpl1")
	if err != nil {
		t.Fatalf("rent: %v", err)
	}
	var h Housing
	e.async.Get(ctx(), BucketHousing, houseID, &h)
	h.Inventory = map[string]int{"chair": 2}
	mustPut(t, e, BucketHousing, houseID, h)

	if err := e.AbandonHouse(ctx(), "alice"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	p := loadPlayer(t, e, "alice")
	if p.HouseID != "" {
		t.Fatalf("expected house_id cleared")
	}
	if p.Inventory["chair"] != 2 {
		t.Fatalf("expected stored items returned to tenant, got %v", p.Inventory)
	}

	var tmpl HousingTemplate
	e.async.Get(ctx(), BucketHousingTemplates, "tmpl1", &tmpl)
	if tmpl.Available != 2 {
		t.Fatalf("expected availability restored to 2, got %d", tmpl.Available)
	}
}

func TestAbandonHouseEvictsOccupantsToLobby(t *testing.T) {
	e := newTestEngine(t)
	seedHousingTemplate(t, e)
	a := seedPlayer(t, e, "alice", "a")
	a.Wallet = 1000
	mustPut(t, e, BucketPlayers, key("alice"), a)
	seedPlayer(t, e, "bob", "studio")

	if _, err := e.RentHouse(ctx(), "alice", "tmpl1"); err != nil {
		t.Fatalf("rent: %v", err)
	}
	if err := e.AbandonHouse(ctx(), "alice"); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	bob := loadPlayer(t, e, "bob")
	if bob.CurrentRoom != DefaultRoomID {
		t.Fatalf("expected bob evicted to %s, got %s", DefaultRoomID, bob.CurrentRoom)
	}
	notices := drainNotices(e, "bob")
	if len(notices) != 1 {
		t.Fatalf("expected an eviction notice for bob, got %v", notices)
	}
}
