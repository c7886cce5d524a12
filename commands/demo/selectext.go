package demo

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/jeremyschulman/slackapptk/app"
	"github.com/jeremyschulman/slackapptk/cli"
	"github.com/jeremyschulman/slackapptk/request"
	"github.com/jeremyschulman/slackapptk/response"
)

// selectPickID keys both the block action (the user's final pick) and the
// block_suggestion option load for the same element.
const selectPickID = "demo.select.pick"

var hostInventory = []string{
	"dc1-core-sw01", "dc1-core-sw02", "dc1-edge-rt01",
	"dc2-core-sw01", "dc2-edge-rt01", "lab-spine-01",
}

// registerSelect wires "demo select": a message with an external select whose
// options the app serves on demand, filtered by what the user has typed.
func registerSelect(a *app.SlackApp, c *cli.SlashCommandCLI) {
	cmd := c.AddParser(nil, &cobra.Command{
		Use:   "select",
		Short: "Post a message with an app-populated select menu",
	})

	event := cli.Prog(cmd)
	c.On(event, func(rqst *request.CommandRequest) (any, error) {
		return selectMessage(rqst)
	})
	c.OnEvent(event, func(rqst request.Any) (any, error) {
		return selectMessage(rqst)
	})

	a.IC.OnSelectValue(selectPickID, provideHostOptions)
	a.IC.OnBlockActionEvent(selectPickID, hostPicked)
}

func selectMessage(rqst request.Any) (any, error) {
	minQuery := 0
	element := slack.NewOptionsSelectBlockElement(slack.OptTypeExternal,
		slack.NewTextBlockObject(slack.PlainTextType, "find a host ...", false, false),
		selectPickID)
	element.MinQueryLength = &minQuery

	resp := response.New(rqst).WithText("Pick a host from inventory.")
	resp.AddBlock(slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, "*Host lookup*", false, false),
		nil,
		slack.NewAccessory(element),
		slack.SectionBlockOptionBlockID(selectPickID),
	))

	return nil, resp.Send()
}

// provideHostOptions serves the option load; the decoded action value is the
// user's typed filter.
func provideHostOptions(rqst *request.OptionSelectRequest, action request.ActionEvent) (any, error) {
	filter := strings.ToLower(action.Str())

	var options []*slack.OptionBlockObject
	for _, host := range hostInventory {
		if filter != "" && !strings.Contains(host, filter) {
			continue
		}
		options = append(options, slack.NewOptionBlockObject(host,
			slack.NewTextBlockObject(slack.PlainTextType, host, false, false), nil))
	}
	return options, nil
}

func hostPicked(rqst *request.BlockActionRequest, action request.ActionEvent) (any, error) {
	return nil, response.New(rqst).
		WithText(fmt.Sprintf("You selected host `%s`.", action.Str())).
		SendEphemeral()
}
