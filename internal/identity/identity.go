package identity

import (
	"context"
	"regexp"
	"time"

	"github.com/meshbbs/core/internal/config"
	"github.com/meshbbs/core/internal/store"
	"github.com/meshbbs/core/internal/world"
)

// usernameRE is the validity regex from §3: "unique case-insensitive
// username (1-16 chars, alphanumeric + underscore)".
var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_]{1,16}$`)

const minPasswordLen = 6

// Service is the identity subsystem's handle: registration, login,
// node binding, and role elevation, all against the same player
// records internal/world owns.
type Service struct {
	async *store.Async
	cfg   config.IdentityConfig
}

func NewService(async *store.Async, cfg config.IdentityConfig) *Service {
	return &Service{async: async, cfg: cfg}
}

// ValidUsername reports whether name passes the registration regex.
func ValidUsername(name string) bool { return usernameRE.MatchString(name) }

// Register creates a new account with no node bound; Login binds the
// caller's node on the first successful login.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if !ValidUsername(username) {
		return world.NewDomainError(world.ErrInvalidUsername, "%s", username)
	}
	if len(password) < minPasswordLen {
		return world.NewDomainError(world.ErrInvalidPassword, "password too short")
	}
	hash, err := HashPassword(s.cfg, password)
	if err != nil {
		return err
	}
	return s.async.Transaction(ctx, func(tx *store.Tx) error {
		if _, err := world.GetPlayer(tx, username); err == nil {
			return world.NewDomainError(world.ErrAlreadyLoggedIn, "username taken")
		}
		p := &world.Player{
			Username:     username,
			PasswordHash: hash,
			Role:         world.RoleUser,
			CurrentRoom:  world.DefaultRoomID,
			CreatedAt:    time.Now(),
			LastSeenAt:   time.Now(),
			CurrencyTag:  "decimal",
		}
		return world.PutPlayer(tx, p)
	})
}

// Login verifies password and, if node is nonzero, binds it to the
// account — unless the account is already bound to a different node,
// in which case re-authentication (not a silent rebind) is required.
func (s *Service) Login(ctx context.Context, username, password string, node uint32) error {
	return s.async.Transaction(ctx, func(tx *store.Tx) error {
		p, err := world.GetPlayer(tx, username)
		if err != nil {
			return err
		}
		ok, err := VerifyPassword(p.PasswordHash, password)
		if err != nil {
			return err
		}
		if !ok {
			return world.NewDomainError(world.ErrWrongPassword, "%s", username)
		}
		if node != 0 && p.HasNodeBound() && p.NodeID != node {
			return world.NewDomainError(world.ErrNodeAlreadyBound, "%s", username)
		}
		if node != 0 {
			p.NodeID = node
		}
		p.LastSeenAt = time.Now()
		return world.PutPlayer(tx, p)
	})
}

// SetPassword sets a password on an account that currently has none
// (§4.5: "SETPASS is only valid for an account that currently has no
// password").
func (s *Service) SetPassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return world.NewDomainError(world.ErrInvalidPassword, "password too short")
	}
	return s.async.Transaction(ctx, func(tx *store.Tx) error {
		p, err := world.GetPlayer(tx, username)
		if err != nil {
			return err
		}
		if p.PasswordHash != "" {
			return world.NewDomainError(world.ErrPermissionDenied, "account already has a password")
		}
		hash, err := HashPassword(s.cfg, newPassword)
		if err != nil {
			return err
		}
		p.PasswordHash = hash
		return world.PutPlayer(tx, p)
	})
}

// ChangePassword requires knowing the current password (§4.5: "CHPASS
// old new requires knowing the current one").
func (s *Service) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return world.NewDomainError(world.ErrInvalidPassword, "password too short")
	}
	return s.async.Transaction(ctx, func(tx *store.Tx) error {
		p, err := world.GetPlayer(tx, username)
		if err != nil {
			return err
		}
		ok, err := VerifyPassword(p.PasswordHash, oldPassword)
		if err != nil {
			return err
		}
		if !ok {
			return world.NewDomainError(world.ErrWrongPassword, "%s", username)
		}
		hash, err := HashPassword(s.cfg, newPassword)
		if err != nil {
			return err
		}
		p.PasswordHash = hash
		return world.PutPlayer(tx, p)
	})
}

// SetRole elevates or demotes an account's role, recording the change
// in the audit log with the actor and old/new values.
func (s *Service) SetRole(ctx context.Context, actor, target string, newRole world.Role) error {
	return s.async.Transaction(ctx, func(tx *store.Tx) error {
		actorP, err := world.GetPlayer(tx, actor)
		if err != nil {
			return err
		}
		if actorP.Role < world.RoleAdmin {
			return world.NewDomainError(world.ErrPermissionDenied, "admin role required")
		}
		targetP, err := world.GetPlayer(tx, target)
		if err != nil {
			return err
		}
		old := targetP.Role
		targetP.Role = newRole
		if err := world.PutPlayer(tx, targetP); err != nil {
			return err
		}
		return world.AppendAudit(tx, world.AuditEntry{
			At:       time.Now(),
			Actor:    actorP.Username,
			Subject:  targetP.Username,
			Action:   "SET_ROLE",
			OldValue: roleLabel(old),
			NewValue: roleLabel(newRole),
		})
	})
}

func roleLabel(r world.Role) string {
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
		return "unknown"
	}
}
