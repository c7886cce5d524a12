// Package demo registers the "/demo" slash command, a grab bag of
// interactive feature demos: Block Kit buttons, modal input widgets,
// external select menus, and background view updates.
package demo

import (
	"github.com/slack-go/slack"

	"github.com/jeremyschulman/slackapptk/app"
	"github.com/jeremyschulman/slackapptk/cli"
	"github.com/jeremyschulman/slackapptk/request"
	"github.com/jeremyschulman/slackapptk/response"
)

const menuCallbackID = "demo.menu"

// Register attaches the demo command and its interactive listeners to the app.
func Register(a *app.SlackApp) {
	c := cli.New("demo", "Interactive Slack feature demos")
	c.SetVersion("2.0")

	// bare "/demo" presents the subcommands as a menu select
	c.On("demo", mainMenu)

	a.IC.OnIMsg(menuCallbackID, func(rqst *request.InteractiveMessageRequest, action request.ActionEvent) (any, error) {
		return c.RunEvent(rqst, action.Str())
	})

	registerBlock(a, c)
	registerModal(a, c)
	registerSelect(a, c)
	registerAsyncModal(a, c)

	a.Commands.Register(c)
}

// mainMenu replies with an attachment select listing the demo subcommands, so
// the user can pick one instead of typing it.
func mainMenu(rqst *request.CommandRequest) (any, error) {
	options := []slack.AttachmentActionOption{
		{Text: "Block buttons", Value: "demo block"},
		{Text: "Modal inputs", Value: "demo modal"},
		{Text: "External select", Value: "demo select"},
		{Text: "Async modal", Value: "demo async-modal"},
	}

	resp := response.New(rqst).WithText("Pick a demo to run:")
	resp.AddAttachment(slack.Attachment{
		CallbackID: menuCallbackID,
		Color:      "#1D9BD1",
		Actions: []slack.AttachmentAction{{
			Name:    "demos",
			Text:    "demos ...",
			Type:    "select",
			Options: options,
		}},
	})

	return nil, resp.SendResponse()
}
