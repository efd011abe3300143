// Package admin wires the moderator/admin/sysop verb table (§4.8):
// bulletin moderation, role elevation, account listing, log/backup
// housekeeping, and the currency-mode migration switch. Every handler
// here assumes the command.Registry has already gated the caller's
// role — handlers only do the work, not the authorization check.
package admin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/meshbbs/core/internal/command"
	"github.com/meshbbs/core/internal/config"
	"github.com/meshbbs/core/internal/identity"
	"github.com/meshbbs/core/internal/world"
)

// Broadcaster is the narrow mesh-session capability BROADCAST needs:
// composing and sending a message to every bound node. Implemented by
// the wiring layer (cmd/meshbbsd), not this package, so admin never
// depends on transport/mesh directly.
type Broadcaster interface {
	Broadcast(ctx context.Context, text string) error
}

// RegisterAdminVerbs wires BROADCAST/PROMOTE/DEMOTE/USERS/USERINFO,
// the bulletin moderation verbs, DELLOG, ADMIN BACKUP, and
// ADMIN CURRENCY CONVERT into reg.
func RegisterAdminVerbs(reg *command.Registry, e *world.Engine, idSvc *identity.Service, bcast Broadcaster, ret config.RetentionConfig) {
	reg.Register(world.RoleAdmin, func(ctx context.Context, req *command.Request) (string, error) {
		if len(req.Args) == 0 {
			return "", world.NewDomainError(world.ErrBadArgs, "BROADCAST <text>")
		}
		text := strings.Join(req.Args, " ")
		if err := bcast.Broadcast(ctx, text); err != nil {
			return "", err
		}
		return "Broadcast sent.", nil
	}, "BROADCAST")

	reg.Register(world.RoleAdmin, func(ctx context.Context, req *command.Request) (string, error) {
		if len(req.Args) != 2 {
			return "", world.NewDomainError(world.ErrBadArgs, "PROMOTE <user> <role>")
		}
		role, ok := parseRole(req.Args[1])
		if !ok {
			return "", world.NewDomainError(world.ErrBadArgs, "unknown role %s", req.Args[1])
		}
		if err := idSvc.SetRole(ctx, req.Actor.Username, req.Args[0], role); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is now %s.", req.Args[0], roleName(role)), nil
	}, "PROMOTE", "DEMOTE")

	reg.Register(world.RoleAdmin, func(ctx context.Context, req *command.Request) (string, error) {
		users, err := e.ListUsers(ctx)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for _, u := range users {
			fmt.Fprintf(&b, "%s (%s)\n", u.Username, roleName(u.Role))
		}
		return b.String(), nil
	}, "USERS")

	reg.Register(world.RoleAdmin, func(ctx context.Context, req *command.Request) (string, error) {
		if len(req.Args) != 1 {
			return "", world.NewDomainError(world.ErrBadArgs, "USERINFO <user>")
		}
		p, err := e.UserInfo(ctx, req.Args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s role=%s room=%s wallet=%d posts=%d last_seen=%s",
			p.Username, roleName(p.Role), p.CurrentRoom, p.Wallet, p.PostCount,
			p.LastSeenAt.Format(time.RFC3339)), nil
	}, "USERINFO")

	reg.Register(world.RoleModerator, handleModeration(e), "DELETE", "LOCK", "UNLOCK", "PIN", "RENAME")

	reg.Register(world.RoleModerator, func(ctx context.Context, req *command.Request) (string, error) {
		n, err := e.PruneAuditLog(ctx, ret.AuditLogMaxAge)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Pruned %d security-log entries older than %s.", n, ret.AuditLogMaxAge), nil
	}, "DELLOG")

	reg.Register(world.RoleSysop, handleAdminSub(e, ret), "ADMIN")
}

// handleAdminSub dispatches the two-word ADMIN subcommands: BACKUP
// (hot snapshot via bbolt's WriteTo) and CURRENCY CONVERT (the
// YES-confirmed currency-mode migration).
func handleAdminSub(e *world.Engine, ret config.RetentionConfig) command.HandlerFunc {
	return func(ctx context.Context, req *command.Request) (string, error) {
		if len(req.Args) == 0 {
			return "", world.NewDomainError(world.ErrBadArgs, "ADMIN BACKUP | ADMIN CURRENCY CONVERT <mode> YES")
		}
		switch strings.ToUpper(req.Args[0]) {
		case "BACKUP":
			return doBackup(ctx, e, ret)
		case "CURRENCY":
			if len(req.Args) != 4 || strings.ToUpper(req.Args[1]) != "CONVERT" {
				return "", world.NewDomainError(world.ErrBadArgs, "ADMIN CURRENCY CONVERT <to-mode> YES")
			}
			toMode := config.CurrencyMode(strings.ToLower(req.Args[2]))
			confirm := req.Args[3]
			fromMode := config.CurrencyDecimal
			if toMode == config.CurrencyDecimal {
				fromMode = config.CurrencyMultiTier
			}
			if err := e.AdminConvertCurrency(ctx, req.Actor.Username, fromMode, toMode, confirm); err != nil {
				return "", err
			}
			return fmt.Sprintf("Currency mode converted to %s.", toMode), nil
		default:
			return "", world.NewDomainError(world.ErrBadArgs, "ADMIN BACKUP | ADMIN CURRENCY CONVERT <mode> YES")
		}
	}
}

func doBackup(ctx context.Context, e *world.Engine, ret config.RetentionConfig) (string, error) {
	dir := ret.BackupDir
	if dir == "" {
		dir = "backups"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("admin: create backup dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("meshbbs-%s.bbolt", time.Now().UTC().Format("20060102T150405Z")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("admin: create backup file: %w", err)
	}
	defer f.Close()
	if err := e.Backup(ctx, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("Backup written to %s.", path), nil
}

func handleModeration(e *world.Engine) command.HandlerFunc {
	return func(ctx context.Context, req *command.Request) (string, error) {
		switch req.Verb {
		case "DELETE":
			if len(req.Args) != 2 {
				return "", world.NewDomainError(world.ErrBadArgs, "DELETE <board> <id>")
			}
			if err := e.DeleteBulletin(ctx, req.Args[0], req.Args[1]); err != nil {
				return "", err
			}
			return "Deleted.", nil
		case "LOCK", "UNLOCK":
			if len(req.Args) != 1 {
				return "", world.NewDomainError(world.ErrBadArgs, "%s <id>", req.Verb)
			}
			if err := e.LockBulletin(ctx, req.Args[0], req.Verb == "LOCK"); err != nil {
				return "", err
			}
			return "OK.", nil
		case "PIN":
			if len(req.Args) != 1 {
				return "", world.NewDomainError(world.ErrBadArgs, "PIN <id>")
			}
			if err := e.PinBulletin(ctx, req.Args[0], true); err != nil {
				return "", err
			}
			return "Pinned.", nil
		case "RENAME":
			if len(req.Args) < 2 {
				return "", world.NewDomainError(world.ErrBadArgs, "RENAME <id> <new title>")
			}
			if err := e.RenameBulletin(ctx, req.Args[0], strings.Join(req.Args[1:], " ")); err != nil {
				return "", err
			}
			return "Renamed.", nil
		default:
			return "", world.NewDomainError(world.ErrUnknownCommand, "%s", req.Verb)
		}
	}
}

func parseRole(s string) (world.Role, bool) {
	switch strings.ToLower(s) {
	case "guest":
		return world.RoleGuest, true
	case "user":
		return world.RoleUser, true
	case "moderator", "mod":
		return world.RoleModerator, true
	case "admin":
		return world.RoleAdmin, true
	case "sysop":
		return world.RoleSysop, true
	default:
		if n, err := strconv.Atoi(s); err == nil {
			return world.Role(n), true
		}
		return 0, false
	}
}

func roleName(r world.Role) string {
	switch r {
	case world.RoleGuest:
		return "guest"
	case world.RoleUser:
		return "user"
	case world.RoleModerator:
		return "moderator"
	case world.RoleAdmin:
		return "admin"
	case world.RoleSysop:
		return "sysop"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}
