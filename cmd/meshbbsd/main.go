package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meshbbs/core/internal/admin"
	"github.com/meshbbs/core/internal/command"
	"github.com/meshbbs/core/internal/config"
	"github.com/meshbbs/core/internal/core/event"
	"github.com/meshbbs/core/internal/identity"
	"github.com/meshbbs/core/internal/mesh"
	"github.com/meshbbs/core/internal/scheduler"
	"github.com/meshbbs/core/internal/session"
	"github.com/meshbbs/core/internal/store"
	"github.com/meshbbs/core/internal/transport"
	"github.com/meshbbs/core/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("  ┌───────────────────────────────────────────┐")
	fmt.Println("  │              MeshBBS  v0.1.0               │")
	fmt.Println("  │     a BBS/MUD engine over LoRa mesh        │")
	fmt.Println("  └───────────────────────────────────────────┘")
	fmt.Println()
	fmt.Printf("  BBS: %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  ── %s %s\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s %s %s\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string)    { fmt.Printf("  ✓ %s\n", msg) }
func printReady(msg string) { fmt.Printf("  ▶ %s\n", msg) }

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	cfgPath := "config/meshbbs.toml"
	if p := os.Getenv("MESHBBS_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.BBS.Name)

	printSection("Storage")
	dataDir := cfg.Storage.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	dbPath := dataDir + "/meshbbs.bbolt"
	s, err := store.Open(dbPath, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()
	printOK("bbolt store opened")

	for _, b := range world.AllBuckets {
		if err := s.EnsureBucket(b); err != nil {
			return fmt.Errorf("ensure bucket %s: %w", b, err)
		}
	}
	if err := world.Seed(s, log); err != nil {
		return fmt.Errorf("seed world: %w", err)
	}
	printOK("world content seeded")
	fmt.Println()

	workers := cfg.Storage.AsyncWorkers
	if workers <= 0 {
		workers = 4
	}
	async := store.NewAsync(s, workers)

	bus := event.NewBus()
	engine := world.NewEngine(async, cfg.World, log)
	engine.SetEventBus(bus)
	idSvc := identity.NewService(async, cfg.Identity)

	printSection("Command dispatch")
	reg := command.NewRegistry(log)
	command.RegisterIdentityVerbs(reg, idSvc)
	command.RegisterWorldVerbs(reg, engine)
	printOK("identity and world verbs registered")

	sessMgr := session.NewManager(reg, engine, cfg.Session)

	printSection("Transport")
	tr := transport.New(transport.Config{
		Port:               cfg.Meshtastic.Port,
		BaudRate:           cfg.Meshtastic.BaudRate,
		RequireCRC:         cfg.Meshtastic.RequireCRC,
		MinSendGap:         cfg.Meshtastic.MinSendGap,
		PostDMBroadcastGap: cfg.Meshtastic.PostDMBroadcastGap,
		DMToDMGap:          cfg.Meshtastic.DMToDMGap,
		ReopenBackoffMin:   cfg.Meshtastic.ReopenBackoffMin,
		ReopenBackoffMax:   cfg.Meshtastic.ReopenBackoffMax,
	}, log)
	meshLayer := mesh.NewLayer(tr, log)
	printOK(fmt.Sprintf("serial link configured on %s", cfg.Meshtastic.Port))

	bcast := &layerBroadcaster{layer: meshLayer, budget: mesh.MaxTextBytes}

	admin.RegisterAdminVerbs(reg, engine, idSvc, bcast, cfg.Retention)
	printOK("admin verbs registered")
	fmt.Println()

	printSection("Scheduler")
	sched := scheduler.New(bus, log)
	sched.Register(scheduler.NewInactivitySystem(sessMgr, cfg.Session.IdleTimeout, log))
	sched.Register(scheduler.NewBeaconSystem(cfg.IdentBeacon, cfg.BBS, cfg.Meshtastic.NodeID, bcast, log))
	sched.Register(scheduler.NewAchievementSystem(engine, bus, 300, log))
	sched.Register(scheduler.NewRetentionSystem(engine, cfg.Retention, log))
	printOK("inactivity, beacon, achievement and retention systems registered")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go tr.Run(ctx)
	go meshLayer.Run(ctx)
	go sched.Run(ctx, time.Second)
	go serveEvents(ctx, meshLayer, sessMgr, log)

	printSection("Ready")
	printReady(fmt.Sprintf("listening on %s", cfg.Meshtastic.Port))
	printReady("scheduler ticking every 1s")
	fmt.Println()

	<-ctx.Done()
	log.Info("shutdown signal received, draining")
	return nil
}

// serveEvents pumps decoded mesh events into the per-node session FSM
// and ships the composed replies back out over the mesh layer.
func serveEvents(ctx context.Context, layer *mesh.Layer, sessMgr *session.Manager, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-layer.Events():
			switch ev.Kind {
			case mesh.EventDirect, mesh.EventPublic:
				sess := sessMgr.Get(ev.FromNode)
				frames := sess.HandleLine(ctx, ev.Text, time.Now())
				for _, frame := range frames {
					if ok, err := layer.SendDirect(ev.FromNode, frame); err != nil {
						log.Warn("encode reply failed", zap.Uint32("node", ev.FromNode), zap.Error(err))
					} else if !ok {
						log.Warn("outbound queue full, dropping reply", zap.Uint32("node", ev.FromNode))
					}
				}
			case mesh.EventNodeInfo:
				log.Debug("node announce", zap.Uint32("node", ev.NodeInfo.NodeID), zap.String("short", ev.NodeInfo.ShortName))
			}
		}
	}
}

// layerBroadcaster adapts mesh.Layer's single-frame SendBroadcast to
// the admin.Broadcaster/scheduler.Broadcaster contract, chunking any
// text over the per-frame budget using the same composer the session
// layer uses for multi-frame replies.
type layerBroadcaster struct {
	layer  *mesh.Layer
	budget int
}

func (b *layerBroadcaster) Broadcast(ctx context.Context, text string) error {
	for _, frame := range session.ComposeMultiFrame(text, "", b.budget) {
		ok, err := b.layer.SendBroadcast(frame)
		if err != nil {
			return fmt.Errorf("broadcast: %w", err)
		}
		if !ok {
			return fmt.Errorf("broadcast: outbound queue full")
		}
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.File != "" {
		zapCfg = zap.NewProductionConfig()
		zapCfg.OutputPaths = []string{cfg.File}
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
