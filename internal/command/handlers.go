package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/meshbbs/core/internal/identity"
	"github.com/meshbbs/core/internal/world"
)

// RegisterIdentityVerbs wires REGISTER/LOGIN/SETPASS/CHPASS to svc.
// LOGOUT is a session-layer concern (it has no engine-side effect; the
// session FSM clears the login and returns to Unauthenticated) so it
// is not registered here.
func RegisterIdentityVerbs(reg *Registry, svc *identity.Service) {
	reg.Register(world.RoleGuest, func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) != 2 {
			return "", world.NewDomainError(world.ErrBadArgs, "REGISTER <user> <pass>")
		}
		if err := svc.Register(ctx, req.Args[0], req.Args[1]); err != nil {
			return "", err
		}
		return fmt.Sprintf("Registered %s. LOGIN to continue.", req.Args[0]), nil
	}, "REGISTER")

	reg.Register(world.RoleGuest, func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) != 2 {
			return "", world.NewDomainError(world.ErrBadArgs, "LOGIN <user> <pass>")
		}
		if err := svc.Login(ctx, req.Args[0], req.Args[1], req.Node); err != nil {
			return "", err
		}
		return fmt.Sprintf("Welcome back, %s.", req.Args[0]), nil
	}, "LOGIN")

	reg.Register(world.RoleUser, func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) != 1 {
			return "", world.NewDomainError(world.ErrBadArgs, "SETPASS <new>")
		}
		if err := svc.SetPassword(ctx, req.Actor.Username, req.Args[0]); err != nil {
			return "", err
		}
		return "Password set.", nil
	}, "SETPASS")

	reg.Register(world.RoleUser, func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) != 2 {
			return "", world.NewDomainError(world.ErrBadArgs, "CHPASS <old> <new>")
		}
		if err := svc.ChangePassword(ctx, req.Actor.Username, req.Args[0], req.Args[1]); err != nil {
			return "", err
		}
		return "Password changed.", nil
	}, "CHPASS")
}

// RegisterWorldVerbs wires the movement/object/npc/quest/mail/
// bulletin/housing/trade verbs to e. All require RoleUser (an
// authenticated Player), since req.Actor is nil pre-login.
func RegisterWorldVerbs(reg *Registry, e *world.Engine) {
	reg.Register(world.RoleUser, func(ctx context.Context, req *Request) (string, error) {
		room, err := e.LookRoom(ctx, req.Actor.Username)
		if err != nil {
			return "", err
		}
		return describeRoom(room), nil
	}, "LOOK", "WHERE")

	reg.Register(world.RoleUser, func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) != 1 {
			return "", world.NewDomainError(world.ErrBadArgs, "GO <dir>")
		}
		if err := e.MovePlayer(ctx, req.Actor.Username, req.Args[0]); err != nil {
			return "", err
		}
		room, err := e.LookRoom(ctx, req.Actor.Username)
		if err != nil {
			return "", err
		}
		return describeRoom(room), nil
	}, "GO")

	reg.Register(world.RoleUser, func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) != 1 {
			return "", world.NewDomainError(world.ErrBadArgs, "TAKE <obj>")
		}
		if err := e.Take(ctx, req.Actor.Username, strings.Join(req.Args, " ")); err != nil {
			return "", err
		}
		return "Taken.", nil
	}, "TAKE")

	reg.Register(world.RoleUser, func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) != 1 {
			return "", world.NewDomainError(world.ErrBadArgs, "DROP <obj>")
		}
		if err := e.Drop(ctx, req.Actor.Username, strings.Join(req.Args, " ")); err != nil {
			return "", err
		}
		return "Dropped.", nil
	}, "DROP")

	reg.Register(world.RoleUser, func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) != 1 {
			return "", world.NewDomainError(world.ErrBadArgs, "USE <obj>")
		}
		if err := e.Use(ctx, req.Actor.Username, strings.Join(req.Args, " ")); err != nil {
			return "", err
		}
		return "Used.", nil
	}, "USE")

	reg.Register(world.RoleUser, func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) != 1 {
			return "", world.NewDomainError(world.ErrBadArgs, "EXAMINE <obj>")
		}
		text, err := e.Examine(ctx, req.Actor.Username, strings.Join(req.Args, " "))
		if err != nil {
			return "", err
		}
		return text, nil
	}, "EXAMINE")

	reg.Register(world.RoleUser, func(ctx context.Context, req *Request) (string, error) {
		p, err := e.Inventory(ctx, req.Actor.Username)
		if err != nil {
			return "", err
		}
		return describeInventory(p), nil
	}, "INV")

	reg.Register(world.RoleUser, func(ctx context.Context, req *Request) (string, error) {
		names, err := e.WhoHere(ctx, req.Actor.Username)
		if err != nil {
			return "", err
		}
		if len(names) == 0 {
			return "You are alone here.", nil
		}
		return "Here: " + strings.Join(names, ", "), nil
	}, "WHO")

	reg.Register(world.RoleUser, handleTalk(e), "TALK")
	reg.Register(world.RoleUser, handleQuest(e), "QUEST")
	reg.Register(world.RoleUser, handleMail(e), "MAIL", "RMAIL", "DMAIL")

	reg.Register(world.RoleUser, func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) < 3 {
			return "", world.NewDomainError(world.ErrBadArgs, "SEND <to> <subject> <body…>")
		}
		to, subject := req.Args[0], req.Args[1]
		body := strings.Join(req.Args[2:], " ")
		if err := e.SendMail(ctx, req.Actor.Username, to, subject, body); err != nil {
			return "", err
		}
		return fmt.Sprintf("Mail sent to %s.", to), nil
	}, "SEND")

	reg.Register(world.RoleUser, handleHousing(e), "HOUSING")
	reg.Register(world.RoleUser, handleTrade(e), "TRADE", "OFFER", "ACCEPT", "REJECT")

	reg.Register(world.RoleUser, func(ctx context.Context, req *Request) (string, error) {
		boards, err := e.ListBulletins(ctx, defaultBoard(req.Args))
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for _, bb := range boards {
			fmt.Fprintf(&b, "%s - %s\n", bb.ID, bb.Title)
		}
		if b.Len() == 0 {
			return "No posts.", nil
		}
		return b.String(), nil
	}, "TOPICS", "LIST")

	reg.Register(world.RoleUser, func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) < 1 {
			return "", world.NewDomainError(world.ErrBadArgs, "POST <topic> <text…>")
		}
		board := req.Args[0]
		body := strings.Join(req.Args[1:], " ")
		if err := e.PostBulletin(ctx, req.Actor.Username, board, "(untitled)", body); err != nil {
			return "", err
		}
		return "Posted.", nil
	}, "POST")
}

func describeRoom(r *world.Room) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s", r.Name, r.Description)
	if len(r.Exits) > 0 {
		dirs := make([]string, 0, len(r.Exits))
		for d := range r.Exits {
			dirs = append(dirs, d)
		}
		fmt.Fprintf(&b, "\nExits: %s", strings.Join(dirs, ", "))
	}
	return b.String()
}

func describeInventory(p *world.Player) string {
	if len(p.Inventory) == 0 {
		return "You are carrying nothing."
	}
	var b strings.Builder
	for id, n := range p.Inventory {
		fmt.Fprintf(&b, "%s x%d\n", id, n)
	}
	return strings.TrimRight(b.String(), "\n")
}

func defaultBoard(args []string) string {
	if len(args) == 0 {
		return "general"
	}
	return args[0]
}

// handleTalk only opens a conversation (TalkStart); once open, the
// session FSM's World{Talking} sub-state owns the active npc/node and
// routes bare digit selectors straight to Engine.TalkChoose itself —
// that per-session conversation context has no home in a stateless
// Request, so it never flows through the verb table.
func handleTalk(e *world.Engine) HandlerFunc {
	return func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) == 0 {
			return "", world.NewDomainError(world.ErrBadArgs, "TALK <npc>")
		}
		view, err := e.TalkStart(ctx, req.Actor.Username, strings.Join(req.Args, " "))
		if err != nil {
			return "", err
		}
		return renderDialogue(view), nil
	}
}

func renderDialogue(v *world.DialogueView) string {
	if v == nil {
		return "They have nothing more to say."
	}
	var b strings.Builder
	b.WriteString(v.Text)
	for i, c := range v.Choices {
		fmt.Fprintf(&b, "\n%d) %s", i+1, c.Label)
	}
	return b.String()
}

func handleQuest(e *world.Engine) HandlerFunc {
	return func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) == 0 || strings.EqualFold(req.Args[0], "LIST") {
			p, err := e.Inventory(ctx, req.Actor.Username)
			if err != nil {
				return "", err
			}
			if len(p.Quests) == 0 {
				return "No active quests.", nil
			}
			var b strings.Builder
			for id, prog := range p.Quests {
				done := 0
				for _, ok := range prog.ObjectiveDone {
					if ok {
						done++
					}
				}
				fmt.Fprintf(&b, "%s: %d/%d objectives\n", id, done, len(prog.ObjectiveDone))
			}
			return strings.TrimRight(b.String(), "\n"), nil
		}
		if len(req.Args) < 2 {
			return "", world.NewDomainError(world.ErrBadArgs, "QUEST [LIST|ACCEPT|ABANDON] <id>")
		}
		questID := req.Args[1]
		switch strings.ToUpper(req.Args[0]) {
		case "ACCEPT":
			if err := e.AcceptQuest(ctx, req.Actor.Username, questID); err != nil {
				return "", err
			}
			return "Quest accepted.", nil
		case "ABANDON":
			if err := e.AbandonQuest(ctx, req.Actor.Username, questID); err != nil {
				return "", err
			}
			return "Quest abandoned.", nil
		default:
			return "", world.NewDomainError(world.ErrBadArgs, "QUEST [LIST|ACCEPT|ABANDON] <id>")
		}
	}
}

func handleMail(e *world.Engine) HandlerFunc {
	return func(ctx context.Context, req *Request) (string, error) {
		switch req.Verb {
		case "MAIL":
			list, err := e.ListMail(ctx, req.Actor.Username)
			if err != nil {
				return "", err
			}
			if len(list) == 0 {
				return "No mail.", nil
			}
			var b strings.Builder
			for i, m := range list {
				mark := " "
				if !m.Read {
					mark = "*"
				}
				fmt.Fprintf(&b, "%d%s %s: %s\n", i+1, mark, m.From, m.Subject)
			}
			return strings.TrimRight(b.String(), "\n"), nil
		case "RMAIL":
			if len(req.Args) != 1 {
				return "", world.NewDomainError(world.ErrBadArgs, "RMAIL <n>")
			}
			m, err := e.ReadMail(ctx, req.Actor.Username, req.Args[0])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("From %s: %s\n%s", m.From, m.Subject, m.Body), nil
		case "DMAIL":
			if len(req.Args) != 1 {
				return "", world.NewDomainError(world.ErrBadArgs, "DMAIL <n>")
			}
			if err := e.DeleteMail(ctx, req.Actor.Username, req.Args[0]); err != nil {
				return "", err
			}
			return "Deleted.", nil
		default:
			return "", world.NewDomainError(world.ErrUnknownCommand, "%s", req.Verb)
		}
	}
}

func handleHousing(e *world.Engine) HandlerFunc {
	return func(ctx context.Context, req *Request) (string, error) {
		if len(req.Args) == 0 {
			return "", world.NewDomainError(world.ErrBadArgs, "HOUSING [LIST|RENT <id>|ABANDON]")
		}
		switch strings.ToUpper(req.Args[0]) {
		case "RENT":
			if len(req.Args) != 2 {
				return "", world.NewDomainError(world.ErrBadArgs, "HOUSING RENT <id>")
			}
			id, err := e.RentHouse(ctx, req.Actor.Username, req.Args[1])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Rented house %s.", id), nil
		case "ABANDON":
			if err := e.AbandonHouse(ctx, req.Actor.Username); err != nil {
				return "", err
			}
			return "House abandoned; your belongings were returned to you.", nil
		case "LIST":
			p, err := e.Inventory(ctx, req.Actor.Username)
			if err != nil {
				return "", err
			}
			if p.HouseID == "" {
				return "You do not rent a house.", nil
			}
			return fmt.Sprintf("You rent house %s.", p.HouseID), nil
		default:
			return "", world.NewDomainError(world.ErrBadArgs, "HOUSING [LIST|RENT <id>|ABANDON]")
		}
	}
}

func handleTrade(e *world.Engine) HandlerFunc {
	return func(ctx context.Context, req *Request) (string, error) {
		switch req.Verb {
		case "TRADE":
			if len(req.Args) != 1 {
				return "", world.NewDomainError(world.ErrBadArgs, "TRADE <user>")
			}
			id, err := e.ProposeTrade(ctx, req.Actor.Username, req.Args[0])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Trade %s proposed.", id), nil
		case "OFFER":
			if len(req.Args) < 2 {
				return "", world.NewDomainError(world.ErrBadArgs, "OFFER <trade-id> <item|amount>")
			}
			offer, err := parseOffer(req.Args[1:])
			if err != nil {
				return "", err
			}
			if err := e.SetTradeOffer(ctx, req.Args[0], req.Actor.Username, offer); err != nil {
				return "", err
			}
			return "Offer set.", nil
		case "ACCEPT":
			if len(req.Args) != 1 {
				return "", world.NewDomainError(world.ErrBadArgs, "ACCEPT <trade-id>")
			}
			if err := e.AcceptTrade(ctx, req.Args[0], req.Actor.Username); err != nil {
				return "", err
			}
			return "Accepted.", nil
		case "REJECT":
			if len(req.Args) != 1 {
				return "", world.NewDomainError(world.ErrBadArgs, "REJECT <trade-id>")
			}
			if err := e.RejectTrade(ctx, req.Args[0], req.Actor.Username); err != nil {
				return "", err
			}
			return "Trade rejected.", nil
		default:
			return "", world.NewDomainError(world.ErrUnknownCommand, "%s", req.Verb)
		}
	}
}

// parseOffer interprets "100" as a currency amount or "item x3" as an
// item/quantity pair; a bare item name defaults to quantity 1.
func parseOffer(args []string) (world.TradeOffer, error) {
	if n, err := strconv.ParseInt(args[0], 10, 64); err == nil {
		return world.TradeOffer{Currency: n}, nil
	}
	qty := 1
	item := args[0]
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
			qty = n
			item = strings.Join(args[:len(args)-1], " ")
		} else {
			item = strings.Join(args, " ")
		}
	}
	return world.TradeOffer{Items: map[string]int{item: qty}}, nil
}
