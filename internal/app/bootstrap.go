package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"strategy_dash/internal/domain"
	"strategy_dash/internal/engine"
	"strategy_dash/internal/event"
	"strategy_dash/internal/gateway"
	"strategy_dash/internal/gesture"
	"strategy_dash/internal/infra"
	"strategy_dash/internal/infra/channel"
	"strategy_dash/internal/infra/storage"
	"strategy_dash/internal/notify"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	History *storage.History
	Client  *channel.Client
	Engine  *engine.Engine
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads the config at path and wires every component.
func (b *Bootstrap) Initialize(path string) error {
	slog.Info("🚀 Bootstrapping Strategy Dashboard...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(path)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Alert history (session scoped)
	history, err := storage.NewHistory(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open alert history: %w", err)
	}
	b.History = history
	slog.Info("✅ Alert history initialized")

	// 4. Channel client, gateway and engine share one inbox
	inbox := make(chan event.Event, cfg.UI.InboxSize)
	metrics := infra.GlobalMetrics

	b.Client = channel.NewClient(channel.Options{
		URL:              cfg.Channel.WSURL,
		Token:            cfg.Channel.Token,
		HandshakeTimeout: cfg.HandshakeTimeout(),
		MaxBackoff:       cfg.MaxBackoff(),
		Metrics:          metrics,
	}, inbox)

	b.Engine = engine.New(engine.Options{
		Inbox: inbox,
		DefaultSort: domain.SortSpec{
			Field:     cfg.UI.DefaultSortField,
			Direction: domain.ParseDirection(cfg.UI.DefaultSortDirection),
		},
		Gateway:  gateway.New(b.Client, metrics),
		Notifier: notify.NewCenter(cfg.ToastDuration(), cfg.UI.NotificationsPerCat, notify.Bell{W: os.Stderr}),
		Layout:   gesture.NewLayout(cfg.UI.CardHeight, cfg.UI.MinCardHeight),
		History:  history,
		Metrics:  metrics,
		OnViewUpdate: func(v engine.View) {
			slog.Debug("View updated", slog.String("strategy", v.Strategy), slog.Int("rows", len(v.Rows)))
		},
	})
	slog.Info("✅ Engine ready", slog.String("sort", cfg.UI.DefaultSortField+" "+cfg.UI.DefaultSortDirection))

	return nil
}

// Start runs the engine loop and connects the channel. Startup preferences
// from the config are queued behind the connection so they replay on every resync.
func (b *Bootstrap) Start(ctx context.Context) error {
	go b.Engine.Run(ctx)
	slog.InfoContext(ctx, "✅ Engine (event loop) started")

	if len(b.Config.UI.Notifications) > 0 {
		settings := domain.NotificationSettings(b.Config.UI.Notifications).Clone()
		if err := b.Engine.Submit(ctx, &event.NotificationSettingsEvent{Settings: settings}); err != nil {
			return err
		}
	}
	if b.Config.UI.View != "" {
		if err := b.Engine.Submit(ctx, &event.ViewChangeEvent{View: b.Config.UI.View}); err != nil {
			return err
		}
	}

	if err := b.Client.Connect(ctx); err != nil {
		return fmt.Errorf("connect channel: %w", err)
	}
	slog.InfoContext(ctx, "✅ Channel client started", slog.String("url", b.Config.Channel.WSURL))
	return nil
}

// Shutdown releases the connection and the history store.
func (b *Bootstrap) Shutdown() {
	if b.Client != nil {
		b.Client.Disconnect()
	}
	if b.History != nil {
		if n, err := b.History.Count(); err == nil {
			slog.Info("Alert history closed", slog.Int64("triggers", n))
		}
		if err := b.History.Close(); err != nil {
			slog.Warn("Failed to close alert history", slog.Any("error", err))
		}
	}
}
