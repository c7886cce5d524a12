package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack/slackevents"

	"github.com/jeremyschulman/slackapptk/request"
	"github.com/jeremyschulman/slackapptk/verify"
)

// Handler returns the HTTP surface for the app's webhook endpoints:
//
//	POST /slack/request         interactive components
//	POST /slack/select          external select option loads
//	POST /slack/command/{name}  slash commands
//	POST /slack/events          Events API callbacks
func (a *SlackApp) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/slack/request", a.webhook(a.serveInteractive))
	r.Post("/slack/select", a.webhook(a.serveInteractive))
	r.Post("/slack/command/{name}", a.webhook(a.serveCommand))
	r.Post("/slack/events", a.webhook(a.serveEvents))
	return r
}

type webhookFunc func(w http.ResponseWriter, r *http.Request, log zerolog.Logger, body []byte)

// webhook wraps every Slack endpoint: it reads the raw body, verifies the
// request signature before anything parses the body, and recovers panics
// into a generic user-facing error rather than a bare 500.
func (a *SlackApp) webhook(serve webhookFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := a.Log.With().
			Str("request_id", uuid.NewString()).
			Str("uri", r.URL.Path).
			Logger()

		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Str("stack", string(debug.Stack())).
					Msg("Unexpected error handling request")
				writeJSON(w, log, map[string]string{
					"response_type": "ephemeral",
					"text":          "An unexpected error occurred processing your request.",
				})
			}
		}()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error().Err(err).Msg("Failed to read request body")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		// Slack-originated requests always carry both signing headers.
		// Anything without them is not Slack traffic and gets no further.
		timestamp := r.Header.Get(verify.TimestampHeader)
		signature := r.Header.Get(verify.SignatureHeader)
		if timestamp == "" || signature == "" {
			log.Warn().Msg("Request missing Slack signing headers")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if !verify.Request(timestamp, signature, body, a.Config.SigningSecret) {
			log.Warn().Msg("Failed to verify Slack request signature")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		serve(w, r, log, body)
	}
}

func (a *SlackApp) serveInteractive(w http.ResponseWriter, r *http.Request, log zerolog.Logger, body []byte) {
	rqst, err := request.Classify(a.Deps(log), body)
	if err != nil {
		a.writeDispatchError(w, log, err)
		return
	}

	if cmd, ok := rqst.(*request.CommandRequest); ok {
		// slash commands normally arrive on /slack/command/{name}, but a
		// single-URL app configuration lands them here
		a.runCommand(w, r.Context(), log, cmd, cmd.Name())
		return
	}

	result, err := a.HandleInteractive(rqst)
	if err != nil {
		a.writeDispatchError(w, log, err)
		return
	}
	writeResult(w, log, result)
}

func (a *SlackApp) serveCommand(w http.ResponseWriter, r *http.Request, log zerolog.Logger, body []byte) {
	rqst, err := request.Classify(a.Deps(log), body)
	if err != nil {
		a.writeDispatchError(w, log, err)
		return
	}

	cmd, ok := rqst.(*request.CommandRequest)
	if !ok {
		a.writeDispatchError(w, log, &request.UnhandledRequestError{
			Type:    string(rqst.Base().Kind),
			Payload: body,
		})
		return
	}

	a.runCommand(w, r.Context(), log, cmd, chi.URLParam(r, "name"))
}

func (a *SlackApp) serveEvents(w http.ResponseWriter, r *http.Request, log zerolog.Logger, body []byte) {
	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse event callback")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if ev.Type == slackevents.URLVerification {
		var challenge *slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text")
		w.Write([]byte(challenge.Challenge))
		return
	}

	rqst, err := request.NewEvent(a.Deps(log), body)
	if err != nil {
		log.Error().Err(err).Msg("Failed to classify event callback")
		w.WriteHeader(http.StatusOK)
		return
	}

	fn, ok := a.Events.Lookup(rqst.EventType)
	if !ok {
		log.Debug().Str("event_type", rqst.EventType).Msg("No handler for event type")
		w.WriteHeader(http.StatusOK)
		return
	}

	// acknowledge within Slack's deadline; the handler runs detached
	SafeGo(log, "event."+rqst.EventType, func() {
		if err := fn(rqst); err != nil {
			log.Error().Err(err).Str("event_type", rqst.EventType).Msg("Event handler failed")
		}
	})
	w.WriteHeader(http.StatusOK)
}

func (a *SlackApp) runCommand(w http.ResponseWriter, ctx context.Context, log zerolog.Logger, cmd *request.CommandRequest, name string) {
	result, err := a.Commands.Run(ctx, name, cmd)
	if err != nil {
		a.writeDispatchError(w, log, err)
		return
	}
	writeResult(w, log, result)
}

// writeDispatchError answers a failed request with a generic error message.
// Classification failures are logged with the full raw payload.
func (a *SlackApp) writeDispatchError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var unhandled *request.UnhandledRequestError
	if errors.As(err, &unhandled) {
		log.Error().Err(err).
			RawJSON("payload", jsonOrQuote(unhandled.Payload)).
			Msg("Unrecognized request payload")
	} else {
		log.Error().Err(err).Msg("Request dispatch failed")
	}

	writeJSON(w, log, map[string]string{
		"response_type": "ephemeral",
		"text":          "Sorry, I was unable to process that request.",
	})
}

// writeResult emits the handler's result as the HTTP response body; a nil
// result becomes the empty acknowledgment Slack expects.
func writeResult(w http.ResponseWriter, log zerolog.Logger, result any) {
	if result == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	if text, ok := result.(string); ok {
		w.Write([]byte(text))
		return
	}
	writeJSON(w, log, result)
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, body any) {
	encoded, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode response body")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(encoded)
}

func jsonOrQuote(payload []byte) []byte {
	if json.Valid(payload) {
		return payload
	}
	quoted, _ := json.Marshal(string(payload))
	return quoted
}
