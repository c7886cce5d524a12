// Package app ties the toolkit together: it owns the Slack client, the
// interactive listener tables, the slash-command registry, and the dispatch
// logic that routes classified requests to their handlers.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/jeremyschulman/slackapptk/cli"
	"github.com/jeremyschulman/slackapptk/registry"
	"github.com/jeremyschulman/slackapptk/request"
	"github.com/jeremyschulman/slackapptk/sessions"
)

// Config is the minimum the app needs before any request can be classified.
// Both values must be present at startup.
type Config struct {
	Token         string
	SigningSecret string
	ListenPort    string
}

// SlackApp is one application instance. All listener state hangs off it;
// there are no package-level registries.
type SlackApp struct {
	Config   Config
	Log      zerolog.Logger
	Client   *slack.Client
	Sessions *sessions.Store

	IC       *registry.IC
	Events   *registry.Table[registry.EventFunc]
	Commands *Commands
}

// Option adjusts a SlackApp during construction.
type Option func(*SlackApp)

// WithLogger replaces the default logger.
func WithLogger(log zerolog.Logger) Option {
	return func(a *SlackApp) { a.Log = log }
}

// WithClient replaces the default Web API client; tests use this to point
// the app at a fake API server.
func WithClient(client *slack.Client) Option {
	return func(a *SlackApp) { a.Client = client }
}

// WithSessions attaches a session store.
func WithSessions(store *sessions.Store) Option {
	return func(a *SlackApp) { a.Sessions = store }
}

// New builds a SlackApp. A missing token or signing secret is a startup
// failure, never a per-request one.
func New(cfg Config, opts ...Option) (*SlackApp, error) {
	if cfg.Token == "" {
		return nil, errors.New("slack bot token is required")
	}
	if cfg.SigningSecret == "" {
		return nil, errors.New("slack signing secret is required")
	}

	a := &SlackApp{
		Config: cfg,
		Log:    zerolog.Nop(),
		IC:     registry.NewIC(),
		Events: registry.NewTable[registry.EventFunc]("event"),
	}
	a.Commands = &Commands{app: a, registry: registry.NewTable[*cli.SlashCommandCLI]("command")}

	for _, opt := range opts {
		opt(a)
	}

	if a.Client == nil {
		a.Client = slack.New(cfg.Token)
	}
	return a, nil
}

// Deps returns the collaborators the request classifier injects into every
// request it constructs.
func (a *SlackApp) Deps(log zerolog.Logger) request.Deps {
	return request.Deps{Client: a.Client, Log: log}
}

// OnEvent routes an Events API event type to its handler.
func (a *SlackApp) OnEvent(eventType string, fn registry.EventFunc) {
	a.Events.On(eventType, fn)
}

// Commands is the registry of slash-command CLIs, keyed by command name.
type Commands struct {
	app      *SlackApp
	registry *registry.Table[*cli.SlashCommandCLI]
}

// Register adds (or replaces) the CLI for its command name.
func (c *Commands) Register(slashCLI *cli.SlashCommandCLI) *cli.SlashCommandCLI {
	c.registry.On(slashCLI.Name, slashCLI)
	return slashCLI
}

// Lookup returns the CLI registered under name.
func (c *Commands) Lookup(name string) (*cli.SlashCommandCLI, bool) {
	return c.registry.Lookup(name)
}

// Run dispatches an inbound slash-command request to the named CLI.
func (c *Commands) Run(ctx context.Context, name string, rqst *request.CommandRequest) (any, error) {
	slashCLI, ok := c.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown slash command name: %s", name)
	}
	return slashCLI.Run(ctx, rqst)
}

// SafeGo runs fn in a detached goroutine, recovering and logging panics.
// Detached work has no cancellation and reports failures only through logs;
// the originating request is gone by the time it runs.
func SafeGo(log zerolog.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("task", name).
					Str("stack", string(debug.Stack())).
					Msg("Detached task panicked")
			}
		}()
		fn()
	}()
}
