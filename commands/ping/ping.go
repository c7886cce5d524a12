// Package ping registers the "/ping" slash command: a minimal end-to-end
// check that a user's command reaches the app and a reply reaches the user.
package ping

import (
	"github.com/spf13/cobra"

	"github.com/jeremyschulman/slackapptk/app"
	"github.com/jeremyschulman/slackapptk/cli"
	"github.com/jeremyschulman/slackapptk/request"
	"github.com/jeremyschulman/slackapptk/response"
)

// Register attaches the ping command to the app.
func Register(a *app.SlackApp) {
	c := cli.New("ping", "Responds with Pong, publicly or privately")
	c.SetVersion("1.0")

	root := c.Parser()
	root.Long = `Responds with Pong. With no argument (or "private") the reply is an
ephemeral message only you can see; with "public" it is posted to the channel.`
	root.ValidArgs = []string{"public", "private"}
	root.Args = cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs)

	c.OnArgs("ping", pong)

	a.Commands.Register(c)
}

func pong(rqst *request.CommandRequest, args *cli.Args) (any, error) {
	mode := "private"
	if len(args.Argv) > 0 {
		mode = args.Argv[0]
	}

	if mode == "public" {
		response.RedirectToUserDM(rqst)
		return nil, response.New(rqst).WithText("*public* Pong!").Send()
	}
	return nil, response.New(rqst).WithText("*private* Pong!").SendEphemeral()
}
