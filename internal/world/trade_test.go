package world

import "testing"

func TestTradeResolvesOnlyAfterBothAccept(t *testing.T) {
	e := newTestEngine(t)
	a := seedPlayer(t, e, "alice", "a")
	a.Wallet = 1000
	a.Inventory = map[string]int{"sword": 1}
	mustPut(t, e, BucketPlayers, key("alice"), a)
	b := seedPlayer(t, e, "bob", "a")
	b.Wallet = 500
	mustPut(t, e, BucketPlayers, key("bob"), b)

	tradeID, err := e.ProposeTrade(ctx(), "alice", "bob")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if err := e.SetTradeOffer(ctx(), tradeID, "alice", TradeOffer{Items: map[string]int{"sword": 1}}); err != nil {
		t.Fatalf("offer a: %v", err)
	}
	if err := e.SetTradeOffer(ctx(), tradeID, "bob", TradeOffer{Currency: 200}); err != nil {
		t.Fatalf("offer b: %v", err)
	}

	if err := e.AcceptTrade(ctx(), tradeID, "alice"); err != nil {
		t.Fatalf("accept a: %v", err)
	}
	// Not yet resolved: bob hasn't accepted.
	if loadPlayer(t, e, "alice").Inventory["sword"] != 1 {
		t.Fatalf("trade resolved early")
	}

	if err := e.AcceptTrade(ctx(), tradeID, "bob"); err != nil {
		t.Fatalf("accept b: %v", err)
	}
	aliceAfter := loadPlayer(t, e, "alice")
	bobAfter := loadPlayer(t, e, "bob")
	if _, ok := aliceAfter.Inventory["sword"]; ok {
		t.Fatalf("expected sword to leave alice's inventory")
	}
	if bobAfter.Inventory["sword"] != 1 {
		t.Fatalf("expected sword in bob's inventory, got %v", bobAfter.Inventory)
	}
	if aliceAfter.Wallet != 1200 {
		t.Fatalf("expected alice wallet 1200, got %d", aliceAfter.Wallet)
	}
	if bobAfter.Wallet != 300 {
		t.Fatalf("expected bob wallet 300, got %d", bobAfter.Wallet)
	}
}

func TestOfferChangeClearsAcceptance(t *testing.T) {
	e := newTestEngine(t)
	seedPlayer(t, e, "alice", "a")
	seedPlayer(t, e, "bob", "a")
	tradeID, _ := e.ProposeTrade(ctx(), "alice", "bob")

	e.AcceptTrade(ctx(), tradeID, "alice")
	e.SetTradeOffer(ctx(), tradeID, "alice", TradeOffer{Currency: 10})

	var tr Trade
	e.async.Get(ctx(), BucketTrades, tradeID, &tr)
	if tr.AcceptedA {
		t.Fatalf("expected acceptance cleared after re-offer")
	}
}

func TestRejectTradeDeletesEscrow(t *testing.T) {
	e := newTestEngine(t)
	seedPlayer(t, e, "alice", "a")
	seedPlayer(t, e, "bob", "a")
	tradeID, _ := e.ProposeTrade(ctx(), "alice", "bob")

	if err := e.RejectTrade(ctx(), tradeID, "bob"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	var tr Trade
	found, _ := e.async.Get(ctx(), BucketTrades, tradeID, &tr)
	if found {
		t.Fatalf("expected trade deleted")
	}
}

func TestTradeRejectsNonParty(t *testing.T) {
	e := newTestEngine(t)
	seedPlayer(t, e, "alice", "a")
	seedPlayer(t, e, "bob", "a")
	seedPlayer(t, e, "carol", "a")
	tradeID, _ := e.ProposeTrade(ctx(), "alice", "bob")

	err := e.AcceptTrade(ctx(), tradeID, "carol")
	de, ok := AsDomainError(err)
	if !ok || de.Kind != ErrForbidden {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}
