package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/jeremyschulman/slackapptk/app"
	"github.com/jeremyschulman/slackapptk/cli"
	"github.com/jeremyschulman/slackapptk/modal"
	"github.com/jeremyschulman/slackapptk/request"
)

const asyncModalID = "demo.async-modal.view"

// registerAsyncModal wires "demo async-modal": the modal opens immediately,
// and a background task rewrites it once a simulated long-running job
// finishes. The task works on its own snapshot of the view; the request that
// opened the modal is long gone by then.
func registerAsyncModal(a *app.SlackApp, c *cli.SlashCommandCLI) {
	cmd := c.AddParser(nil, &cobra.Command{
		Use:   "async-modal",
		Short: "Open a modal that a background task updates",
	})
	cmd.Flags().Int("delay", 3, "seconds before the background update lands")

	event := cli.Prog(cmd)
	c.OnArgs(event, func(rqst *request.CommandRequest, args *cli.Args) (any, error) {
		delay, _ := args.Command.Flags().GetInt("delay")
		return openAsyncModal(a, rqst, delay)
	})
	c.OnEvent(event, func(rqst request.Any) (any, error) {
		return openAsyncModal(a, rqst, 3)
	})
}

func openAsyncModal(a *app.SlackApp, rqst request.Any, delaySec int) (any, error) {
	m := modal.New(rqst, a.IC)

	v := m.View
	v.Title = "Long Running Task"
	v.Close = "Dismiss"
	v.CallbackID = asyncModalID
	v.AddBlock(statusSection("Working on it, hang tight ..."))

	m.NotifyOnClose = asyncModalDismissed

	if err := m.Open(context.Background()); err != nil {
		return nil, err
	}

	// the goroutine gets its own copy; the view id and external id survive
	// the copy, and the detached update does not carry the stale hash
	snapshot := *m.View
	log := rqst.Base().Log

	app.SafeGo(log, "demo.async-modal", func() {
		time.Sleep(time.Duration(delaySec) * time.Second)

		bg := modal.New(rqst, a.IC).WithView(&snapshot)
		bg.Detached = true
		bg.View.Blocks = slack.Blocks{}
		bg.View.AddBlock(statusSection(
			fmt.Sprintf("All done after %d second(s) :tada:", delaySec)))

		if _, err := bg.Update(context.Background()); err != nil {
			log.Error().Err(err).Msg("Background modal update failed")
		}
	})

	return nil, nil
}

func asyncModalDismissed(rqst *request.ViewRequest) (any, error) {
	rqst.Log.Info().Str("user_id", rqst.UserID).Msg("Async modal dismissed before the task finished")
	return nil, nil
}

func statusSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}
