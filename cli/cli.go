// Package cli adapts a cobra command tree for use behind a Slack slash
// command. A console parser wants to print help and exit the process; a
// webhook handler can do neither, so every exit path out of the parser
// (help, version, parse error) is intercepted and converted into a Slack
// message, and the command invocation ends with an empty success response.
package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jeremyschulman/slackapptk/registry"
	"github.com/jeremyschulman/slackapptk/request"
	"github.com/jeremyschulman/slackapptk/response"
)

// Args bundles what the parser matched for one invocation. Flag values are
// read from Command's flag set; Argv holds the positional arguments.
type Args struct {
	Command *cobra.Command
	Argv    []string
}

// CommandFunc handles a matched command path without the parsed arguments.
type CommandFunc func(rqst *request.CommandRequest) (any, error)

// CommandArgsFunc handles a matched command path with the parsed arguments.
type CommandArgsFunc func(rqst *request.CommandRequest, args *Args) (any, error)

type commandEntry struct {
	fn     CommandFunc
	fnArgs CommandArgsFunc
}

// EventFunc handles an interactive re-entry into a command, e.g. the user
// picking a subcommand from a menu select instead of typing it.
type EventFunc func(rqst request.Any) (any, error)

// SlashCommandCLI wraps one slash command's parser tree. The tree is built
// once at startup and is read-only at request time; Run serializes parsing
// and handler dispatch because pflag binds parsed values onto the tree.
type SlashCommandCLI struct {
	Name string

	parser  *cobra.Command
	version string

	mu  sync.Mutex
	cli *registry.Table[commandEntry]
	ic  *registry.Table[EventFunc]
}

// New creates the CLI for the named slash command. The returned value's
// Parser is the root of the cobra tree; subcommands are attached with
// AddParser.
func New(name, description string) *SlashCommandCLI {
	c := &SlashCommandCLI{
		Name: name,
		cli:  registry.NewTable[commandEntry]("cli." + name),
		ic:   registry.NewTable[EventFunc]("cli." + name + ".ic"),
	}

	root := &cobra.Command{
		Use:           name,
		Short:         description,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: captureRunE,
	}
	root.SetHelpFunc(captureHelp)
	root.SetFlagErrorFunc(captureFlagError)

	c.parser = root
	return c
}

// Parser returns the root of the command tree.
func (c *SlashCommandCLI) Parser() *cobra.Command { return c.parser }

// SetVersion enables the --version flag on the root command.
func (c *SlashCommandCLI) SetVersion(version string) {
	c.version = version
	c.parser.Version = version
}

// AddParser attaches cmd under parent (the root when parent is nil) and
// claims its run hook for dispatch. The returned command's CommandPath, e.g.
// "demo block", is the event id handlers register under.
func (c *SlashCommandCLI) AddParser(parent, cmd *cobra.Command) *cobra.Command {
	if parent == nil {
		parent = c.parser
	}
	cmd.RunE = captureRunE
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	parent.AddCommand(cmd)
	return cmd
}

// Prog returns the full command-path event id for cmd.
func Prog(cmd *cobra.Command) string { return cmd.CommandPath() }

// On registers a request-only handler for the full command path.
func (c *SlashCommandCLI) On(path string, fn CommandFunc) {
	c.cli.On(path, commandEntry{fn: fn})
}

// OnArgs registers a handler that receives the parsed arguments.
func (c *SlashCommandCLI) OnArgs(path string, fn CommandArgsFunc) {
	c.cli.On(path, commandEntry{fnArgs: fn})
}

// OnEvent registers an interactive re-entry handler under the command path.
func (c *SlashCommandCLI) OnEvent(event string, fn EventFunc) {
	c.ic.On(event, fn)
}

// invocation is the per-request parse outcome; it travels through the
// command context so the intercepted help/error hooks can reach it without
// touching the shared tree.
type invocation struct {
	rqst     *request.CommandRequest
	matched  *cobra.Command
	argv     []string
	helped   bool
	helpText string
	errUsage string
}

type invocationKey struct{}

func invocationFrom(ctx context.Context) *invocation {
	inv, _ := ctx.Value(invocationKey{}).(*invocation)
	return inv
}

func captureRunE(cmd *cobra.Command, args []string) error {
	inv := invocationFrom(cmd.Context())
	if inv == nil {
		return fmt.Errorf("%s: invoked outside a slash-command request", cmd.CommandPath())
	}
	inv.matched = cmd
	inv.argv = args
	return nil
}

func captureHelp(cmd *cobra.Command, _ []string) {
	inv := invocationFrom(cmd.Context())
	if inv == nil {
		return
	}
	inv.helped = true

	text := cmd.Short
	if cmd.Long != "" {
		text = cmd.Long
	}
	inv.helpText = strings.TrimSpace(text + "\n\n" + cmd.UsageString())
}

func captureFlagError(cmd *cobra.Command, err error) error {
	if inv := invocationFrom(cmd.Context()); inv != nil {
		inv.errUsage = cmd.UsageString()
	}
	return err
}

// resetFlags restores every flag in the tree to its default. Parsed values
// persist on the shared tree between invocations otherwise.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// Run parses the request's argv against the command tree and dispatches to
// the handler registered for the matched command path. Help, version, and
// parse errors never escape: each becomes a Slack message back to the user
// and an empty success result.
func (c *SlashCommandCLI) Run(ctx context.Context, rqst *request.CommandRequest) (any, error) {
	inv := &invocation{rqst: rqst}
	ctx = context.WithValue(ctx, invocationKey{}, inv)

	c.mu.Lock()
	defer c.mu.Unlock()

	resetFlags(c.parser)

	var out bytes.Buffer
	c.parser.SetOut(&out)
	c.parser.SetErr(&out)
	c.parser.SetArgs(rqst.Argv)

	err := c.parser.ExecuteContext(ctx)

	if c.version != "" && c.parser.Flags().Changed("version") {
		c.sendVersion(rqst, strings.TrimSpace(out.String()))
		return nil, nil
	}

	if inv.helped {
		c.sendHelp(rqst, inv.helpText)
		return nil, nil
	}

	if err != nil {
		usage := inv.errUsage
		if usage == "" {
			usage = c.parser.UsageString()
		}
		c.sendError(rqst, err.Error(), usage)
		return nil, nil
	}

	event := c.Name
	if inv.matched != nil {
		event = inv.matched.CommandPath()
	}

	entry, ok := c.cli.Lookup(event)
	if !ok {
		rqst.Log.Error().
			Str("command", c.Name).
			Str("event", event).
			Msg("No handler for command path")
		return nil, nil
	}

	if entry.fn != nil {
		return entry.fn(rqst)
	}
	return entry.fnArgs(rqst, &Args{Command: inv.matched, Argv: inv.argv})
}

// RunEvent dispatches an interactive re-entry, e.g. a menu selection whose
// value is a full command path.
func (c *SlashCommandCLI) RunEvent(rqst request.Any, event string) (any, error) {
	fn, ok := c.ic.Lookup(event)
	if !ok {
		rqst.Base().Log.Error().
			Str("command", c.Name).
			Str("event", event).
			Msg("No handler for command option")
		return nil, nil
	}
	return fn(rqst)
}

func (c *SlashCommandCLI) sendHelp(rqst *request.CommandRequest, helpText string) {
	// echo the command back without the help flag, wherever it appeared
	args := make([]string, 0, len(rqst.Argv))
	for _, arg := range rqst.Argv {
		if arg == "--help" || arg == "-h" {
			continue
		}
		args = append(args, arg)
	}
	cmdStr := strings.TrimSpace(rqst.Command + " " + strings.Join(args, " "))

	err := response.New(rqst).
		WithText(fmt.Sprintf(
			"Hi <@%s>, here is help on the `%s` command:\n\n```%s```",
			rqst.UserID, cmdStr, helpText)).
		SendResponse()
	if err != nil {
		rqst.Log.Error().Err(err).Msg("Failed to send help message")
	}
}

func (c *SlashCommandCLI) sendVersion(rqst *request.CommandRequest, versionText string) {
	if versionText == "" {
		versionText = fmt.Sprintf("%s version %s", c.Name, c.version)
	}
	if err := response.New(rqst).WithText(versionText).SendResponse(); err != nil {
		rqst.Log.Error().Err(err).Msg("Failed to send version message")
	}
}

const errColor = "#FF0000"

func (c *SlashCommandCLI) sendError(rqst *request.CommandRequest, errMsg, usage string) {
	resp := response.New(rqst)
	resp.AddAttachment(slackAttachment(
		fmt.Sprintf("Hi <@%s>, I could not run your command", rqst.UserID),
		fmt.Sprintf("```%s %s```", rqst.Command, rqst.Text),
	))
	resp.AddAttachment(slackAttachment("", "```"+errMsg+"```"))
	resp.AddAttachment(slackAttachment("Command help", "```"+usage+"```"))

	if err := resp.SendResponse(); err != nil {
		rqst.Log.Error().Err(err).Msg("Failed to send parse error message")
	}
}

func slackAttachment(pretext, text string) slack.Attachment {
	return slack.Attachment{
		Color:   errColor,
		Pretext: pretext,
		Text:    text,
	}
}
