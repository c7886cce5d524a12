package demo

import (
	"context"
	"fmt"
	"sort"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/jeremyschulman/slackapptk/app"
	"github.com/jeremyschulman/slackapptk/cli"
	"github.com/jeremyschulman/slackapptk/modal"
	"github.com/jeremyschulman/slackapptk/request"
	"github.com/jeremyschulman/slackapptk/sessions"
)

const modalSubmitID = "demo.modal.submit"

// sessionRunsKey counts how many times the user has submitted this modal.
const sessionRunsKey = "demo.modal.runs"

// registerModal wires "demo modal": a modal stuffed with one of each common
// input widget. Submitting pushes a results view; the submit count per user
// is kept in the session store.
func registerModal(a *app.SlackApp, c *cli.SlashCommandCLI) {
	cmd := c.AddParser(nil, &cobra.Command{
		Use:   "modal",
		Short: "Open a modal with demo input widgets",
	})

	event := cli.Prog(cmd)
	c.On(event, func(rqst *request.CommandRequest) (any, error) {
		return openInputsModal(a, rqst)
	})
	c.OnEvent(event, func(rqst request.Any) (any, error) {
		return openInputsModal(a, rqst)
	})
}

func openInputsModal(a *app.SlackApp, rqst request.Any) (any, error) {
	m := modal.New(rqst, a.IC)

	v := m.View
	v.Title = "Example Inputs"
	v.Submit = "Submit"
	v.Close = "Cancel"
	v.CallbackID = modalSubmitID

	plain := func(text string) *slack.TextBlockObject {
		return slack.NewTextBlockObject(slack.PlainTextType, text, false, false)
	}

	v.AddBlock(slack.NewInputBlock("demo.modal.name", plain("Your name"), nil,
		slack.NewPlainTextInputBlockElement(plain("e.g. Jeremy"), "name")))

	v.AddBlock(slack.NewInputBlock("demo.modal.date", plain("A date"), nil,
		slack.NewDatePickerBlockElement("date")))

	v.AddBlock(slack.NewInputBlock("demo.modal.color", plain("Favorite color"), nil,
		slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, plain("pick one"), "color",
			slack.NewOptionBlockObject("red", plain("Red"), nil),
			slack.NewOptionBlockObject("green", plain("Green"), nil),
			slack.NewOptionBlockObject("blue", plain("Blue"), nil),
		)))

	v.AddBlock(slack.NewInputBlock("demo.modal.toppings", plain("Pizza toppings"), nil,
		slack.NewCheckboxGroupsBlockElement("toppings",
			slack.NewOptionBlockObject("cheese", plain("Cheese"), nil),
			slack.NewOptionBlockObject("mushrooms", plain("Mushrooms"), nil),
			slack.NewOptionBlockObject("peppers", plain("Peppers"), nil),
		)))

	m.OnSubmitInputs = func(rqst *request.ViewRequest, inputs map[string]any) (any, error) {
		return showInputsResult(a, rqst, inputs)
	}
	m.NotifyOnClose = modalAbandoned

	return nil, m.Open(context.Background())
}

// showInputsResult answers the submission with a pushed results view.
func showInputsResult(a *app.SlackApp, rqst *request.ViewRequest, inputs map[string]any) (any, error) {
	runs := bumpRunCount(a.Sessions, rqst)

	result := modal.New(rqst, a.IC).WithView(request.NewView())
	v := result.View
	v.Title = "Your Inputs"
	v.Close = "Done"
	v.CallbackID = "demo.modal.results"

	ids := make([]string, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		text := fmt.Sprintf("*%s*: `%v`", id, inputs[id])
		v.AddBlock(slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil))
	}
	if runs > 0 {
		v.AddBlock(slack.NewDividerBlock())
		v.AddBlock(slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("You have run this demo *%d* time(s).", runs), false, false),
			nil, nil))
	}

	return result.Push(context.Background())
}

func modalAbandoned(rqst *request.ViewRequest) (any, error) {
	rqst.Log.Info().Str("user_id", rqst.UserID).Msg("Inputs modal closed without submitting")
	return nil, nil
}

// bumpRunCount increments the per-user submit counter; 0 means no session
// store is attached.
func bumpRunCount(store *sessions.Store, rqst *request.ViewRequest) int {
	if store == nil {
		return 0
	}

	var runs int
	err := store.Update(rqst.UserID, func(sess *sessions.Session) error {
		if _, err := sess.Get(sessionRunsKey, &runs); err != nil {
			return err
		}
		runs++
		return sess.Set(sessionRunsKey, runs)
	})
	if err != nil {
		rqst.Log.Error().Err(err).Msg("Failed to update demo session")
		return 0
	}
	return runs
}
