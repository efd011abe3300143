package world

import (
	"context"
	"time"

	"github.com/meshbbs/core/internal/config"
	"github.com/meshbbs/core/internal/store"
)

// TransferCurrency moves amount base units from one wallet to another
// atomically, appending one WAL record in the same transaction
// (testable property 3). Both wallets must carry the same currency
// tag or the transfer fails SystemMismatch — wallets only disagree
// mid-migration, between AdminConvertCurrency starting and finishing
// its sweep.
func (e *Engine) TransferCurrency(ctx context.Context, from, to string, amount int64, reason string) error {
	if amount <= 0 {
		return domainErr(ErrInsufficientFunds, "amount must be positive")
	}
	if lower(from) == lower(to) {
		return domainErr(ErrSelfTransfer, "%s", from)
	}
	return e.withTx(ctx, func(tx *store.Tx) error {
		sender, err := getPlayer(tx, from)
		if err != nil {
			return err
		}
		recipient, err := getPlayer(tx, to)
		if err != nil {
			return err
		}
		if sender.CurrencyTag != recipient.CurrencyTag {
			return domainErr(ErrSystemMismatch, "%s is %s, %s is %s", from, sender.CurrencyTag, to, recipient.CurrencyTag)
		}
		if sender.Wallet < amount {
			return domainErr(ErrInsufficientFunds, "%s has %d, needs %d", from, sender.Wallet, amount)
		}
		sender.Wallet -= amount
		recipient.Wallet += amount
		if err := putPlayer(tx, sender); err != nil {
			return err
		}
		if err := putPlayer(tx, recipient); err != nil {
			return err
		}
		return appendWAL(tx, WALEntry{
			At:     time.Now(),
			TxType: "transfer",
			From:   sender.Username,
			To:     recipient.Username,
			Amount: amount,
			Reason: reason,
		})
	})
}

// AdminConvertCurrency re-tags every player wallet from one currency
// mode to the other; housing template prices carry no currency tag and
// are left as they are. Base units are defined as
// equivalent 1:1 across modes (§3: "decimal_minor_units ≡ copper ≡
// 1:1"), so no wallet amount actually changes — only the tag used by
// TransferCurrency's mismatch check and the display formatter. Callers
// must hold RoleSysop and supply the literal confirmation token "YES".
func (e *Engine) AdminConvertCurrency(ctx context.Context, actor string, fromMode, toMode config.CurrencyMode, confirm string) error {
	if confirm != "YES" {
		return domainErr(ErrForbidden, "confirmation token required")
	}
	return e.withTx(ctx, func(tx *store.Tx) error {
		actorP, err := getPlayer(tx, actor)
		if err != nil {
			return err
		}
		if actorP.Role < RoleSysop {
			return domainErr(ErrForbidden, "sysop role required")
		}
		converted := 0
		err = tx.ScanPrefix(BucketPlayers, "", func(key string, value []byte) error {
			var p Player
			if err := unmarshalInto(value, &p); err != nil {
				return internalErr(err)
			}
			if p.CurrencyTag != string(fromMode) {
				return nil
			}
			p.CurrencyTag = string(toMode)
			if err := tx.Put(BucketPlayers, key, &p); err != nil {
				return internalErr(err)
			}
			converted++
			return nil
		})
		if err != nil {
			return err
		}
		return appendAudit(tx, AuditEntry{
			At:      time.Now(),
			Actor:   actorP.Username,
			Subject: "currency",
			Action:  "ADMIN_CONVERT_CURRENCY",
			OldValue: string(fromMode),
			NewValue: string(toMode),
		})
	})
}
