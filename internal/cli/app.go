package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/existflow/ohm/internal/controller"
	"github.com/existflow/ohm/internal/db"
	"github.com/existflow/ohm/internal/drive"
	"github.com/existflow/ohm/internal/logger"
	"github.com/existflow/ohm/internal/model"
	"github.com/existflow/ohm/internal/netwatch"
	"github.com/existflow/ohm/internal/storage"
	ohmsync "github.com/existflow/ohm/internal/sync"
	"golang.org/x/oauth2"
)

// app wires the local store, the board controller and the sync stack for one
// command run
type app struct {
	db     *db.DB
	store  *storage.Store
	tokens *storage.TokenCache
	ctrl   *controller.Controller
	auth   *drive.Authenticator
	net    *netwatch.Monitor
	coord  *ohmsync.Coordinator
	prompt *devicePrompt

	unsubscribe func()
	cancelBg    context.CancelFunc
}

func openApp(ctx context.Context) (*app, error) {
	database, err := db.Open(cfg.DBPath())
	if err != nil {
		logger.Error("Failed to open database", logger.Err(err))
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := storage.New(database)
	ctrl := controller.New(ctx, store, controller.WithSaveDebounce(cfg.Sync.LocalDebounce))

	prompt := &devicePrompt{}
	prompt.set(func(text string) { fmt.Fprintln(os.Stderr, text) })

	tokens := storage.NewTokenCache(database)
	auth := drive.NewAuthenticator(drive.AuthConfig{
		ClientID:     cfg.Drive.ClientID,
		ClientSecret: cfg.Drive.ClientSecret,
		Cache:        tokens,
		Prompter:     prompt.show,
	})

	var storeOpts []drive.StoreOption
	if cfg.Drive.Endpoint != "" {
		storeOpts = append(storeOpts, drive.WithEndpoint(cfg.Drive.Endpoint))
	}
	remote := drive.NewStore(storeOpts...)

	monitor := netwatch.New(cfg.Net.ProbeURL, cfg.Net.ProbeInterval)
	coord := ohmsync.New(ohmsync.Config{
		PushDebounce: cfg.Sync.RemoteDebounce,
		PollInterval: cfg.Sync.AuthPollInterval,
		PollAttempts: cfg.Sync.AuthPollAttempts,
	}, ohmsync.Deps{
		Auth:   auth,
		Remote: remote,
		Board:  ctrl,
		Flags:  store,
		Net:    monitor,
	})

	return &app{
		db:          database,
		store:       store,
		tokens:      tokens,
		ctrl:        ctrl,
		auth:        auth,
		net:         monitor,
		coord:       coord,
		prompt:      prompt,
		unsubscribe: ctrl.Subscribe(coord.QueueSync),
		cancelBg:    func() {},
	}, nil
}

// initSync readies remote sync and checks connectivity once
func (a *app) initSync(ctx context.Context) bool {
	if !cfg.Drive.Enabled() {
		return false
	}
	a.net.Probe(ctx)
	return a.coord.Init(ctx)
}

// startBackground runs the long-lived helpers of an interactive session:
// connectivity probing, remote sync readiness and the store file watcher.
// onReload is called after the board was reloaded from disk.
func (a *app) startBackground(ctx context.Context, onReload func()) {
	ctx, cancel := context.WithCancel(ctx)
	a.cancelBg = cancel

	if cfg.Drive.Enabled() {
		go a.net.Run(ctx)
		go a.coord.Init(ctx)
	}
	go func() {
		if err := a.watchStore(ctx, onReload); err != nil {
			logger.Warn("Store watcher stopped", logger.Err(err))
		}
	}()
}

// watchStore reloads the board when another process writes the database.
// It blocks until ctx is done.
func (a *app) watchStore(ctx context.Context, onReload func()) error {
	err := storage.Watch(ctx, a.db.Path(), func() {
		if a.ctrl.ReloadIfNewer(ctx) && onReload != nil {
			onReload()
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Close stops background work, writes pending changes and closes the database
func (a *app) Close(ctx context.Context) {
	a.cancelBg()
	a.unsubscribe()
	a.coord.Close()
	a.ctrl.Close(ctx)
	if err := a.db.Close(); err != nil {
		logger.Warn("Failed to close database", logger.Err(err))
	}
	logger.Info("Database closed")
}

// devicePrompt routes device-code instructions to whoever owns the terminal
type devicePrompt struct {
	mu   sync.Mutex
	sink func(text string)
}

func (p *devicePrompt) set(sink func(text string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

func (p *devicePrompt) show(resp *oauth2.DeviceAuthResponse) {
	p.mu.Lock()
	sink := p.sink
	p.mu.Unlock()
	if sink != nil {
		sink(deviceInstructions(resp))
	}
}

func deviceInstructions(resp *oauth2.DeviceAuthResponse) string {
	if resp.VerificationURIComplete != "" {
		return fmt.Sprintf("🔑 To connect Google Drive, open %s", resp.VerificationURIComplete)
	}
	return fmt.Sprintf("🔑 To connect Google Drive, open %s and enter code %s", resp.VerificationURI, resp.UserCode)
}

// findCard resolves a full id or a unique id prefix
func findCard(b model.Board, ref string) (model.Card, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Card{}, fmt.Errorf("card id required")
	}
	if c, ok := b.FindCard(ref); ok {
		return c, nil
	}

	var matches []model.Card
	for _, c := range b.Cards {
		if strings.HasPrefix(c.ID, ref) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return model.Card{}, fmt.Errorf("%w: %s", controller.ErrCardNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return model.Card{}, fmt.Errorf("ambiguous card id %q matches %d cards", ref, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func out(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
