package demo

import (
	"fmt"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/jeremyschulman/slackapptk/app"
	"github.com/jeremyschulman/slackapptk/cli"
	"github.com/jeremyschulman/slackapptk/request"
	"github.com/jeremyschulman/slackapptk/response"
)

// registerBlock wires "demo block": a message with two buttons whose clicks
// come back as block actions keyed on the actions block id.
func registerBlock(a *app.SlackApp, c *cli.SlashCommandCLI) {
	cmd := c.AddParser(nil, &cobra.Command{
		Use:   "block",
		Short: "Post a message with demo buttons",
	})

	event := cli.Prog(cmd)
	c.On(event, func(rqst *request.CommandRequest) (any, error) {
		return buttonsMessage(rqst, event)
	})
	c.OnEvent(event, func(rqst request.Any) (any, error) {
		return buttonsMessage(rqst, event)
	})

	a.IC.OnBlockActionEvent(event, buttonClicked)
}

func buttonsMessage(rqst request.Any, blockID string) (any, error) {
	resp := response.New(rqst).WithText("Click a button, any button.")
	resp.AddBlock(slack.NewActionBlock(blockID,
		slack.NewButtonBlockElement("demo.block.approve", "Approve",
			slack.NewTextBlockObject(slack.PlainTextType, "Approve", false, false)),
		slack.NewButtonBlockElement("demo.block.deny", "Deny",
			slack.NewTextBlockObject(slack.PlainTextType, "Deny", false, false)),
	))

	response.RedirectToUserDM(rqst)
	return nil, resp.Send()
}

func buttonClicked(rqst *request.BlockActionRequest, action request.ActionEvent) (any, error) {
	reply := response.New(rqst).WithText(
		fmt.Sprintf("You clicked *%s*.", action.Str()))

	err := reply.SendResponse(response.ReplaceOriginal())
	return nil, err
}
