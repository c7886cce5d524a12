package app

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"

	"github.com/jeremyschulman/slackapptk/cli"
	"github.com/jeremyschulman/slackapptk/request"
	"github.com/jeremyschulman/slackapptk/response"
)

const testSecret = "test-signing-secret"

// signRequest sets the Slack signing headers on the given request.
func signRequest(r *http.Request, body string) {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	baseString := fmt.Sprintf("v0:%s:%s", ts, body)
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(baseString))
	sig := "v0=" + hex.EncodeToString(mac.Sum(nil))

	r.Header.Set("X-Slack-Request-Timestamp", ts)
	r.Header.Set("X-Slack-Signature", sig)
}

type apiCall struct {
	method string
	form   url.Values
}

// fakeSlackAPI stands in for api.slack.com; every Web API call lands on a
// channel the test can assert against.
type fakeSlackAPI struct {
	*httptest.Server
	calls chan apiCall
}

func newFakeSlackAPI(t *testing.T) *fakeSlackAPI {
	t.Helper()
	api := &fakeSlackAPI{calls: make(chan apiCall, 16)}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		method := strings.TrimPrefix(r.URL.Path, "/")
		api.calls <- apiCall{method: method, form: form}

		w.Header().Set("Content-Type", "application/json")
		switch method {
		case "conversations.info":
			w.Write([]byte(`{"ok":true,"channel":{"id":"C123","is_member":true,"is_im":false}}`))
		case "views.open", "views.update", "views.push":
			w.Write([]byte(`{"ok":true,"view":{"id":"V123","hash":"h1"}}`))
		default:
			w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1234567890.000100"}`))
		}
	}))
	t.Cleanup(api.Close)
	return api
}

func (api *fakeSlackAPI) waitFor(t *testing.T, method string) apiCall {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case call := <-api.calls:
			if call.method == method {
				return call
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s API call", method)
		}
	}
}

func (api *fakeSlackAPI) assertNoCalls(t *testing.T) {
	t.Helper()
	select {
	case call := <-api.calls:
		t.Fatalf("unexpected %s API call", call.method)
	default:
	}
}

func newTestApp(t *testing.T) (*SlackApp, *fakeSlackAPI) {
	t.Helper()
	api := newFakeSlackAPI(t)
	client := slack.New("xoxb-fake", slack.OptionAPIURL(api.URL+"/"))

	a, err := New(Config{
		Token:         "xoxb-fake",
		SigningSecret: testSecret,
		ListenPort:    "3000",
	}, WithClient(client))
	if err != nil {
		t.Fatalf("building app: %v", err)
	}
	return a, api
}

func commandForm(commandName, text string) string {
	return url.Values{
		"command":      {"/" + commandName},
		"text":         {text},
		"user_id":      {"U123"},
		"channel_id":   {"C123"},
		"trigger_id":   {"tr123"},
		"response_url": {"https://hooks.slack.test/resp"},
	}.Encode()
}

func postSigned(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	signRequest(req, body)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// --- command endpoint ---

func TestCommandHandler_EndToEnd(t *testing.T) {
	a, api := newTestApp(t)

	c := cli.New("ping", "ping test")
	var gotArgv []string
	c.OnArgs("ping", func(rqst *request.CommandRequest, args *cli.Args) (any, error) {
		gotArgv = args.Argv
		return nil, response.New(rqst).WithText("*public* Pong!").Send()
	})
	a.Commands.Register(c)

	rr := postSigned(a.Handler(), "/slack/command/ping", commandForm("ping", "public"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Equal(t, []string{"public"}, gotArgv)

	call := api.waitFor(t, "chat.postMessage")
	assert.Equal(t, "C123", call.form.Get("channel"))
	assert.Contains(t, call.form.Get("text"), "Pong")
}

func TestCommandHandler_InvalidSignature(t *testing.T) {
	a, api := newTestApp(t)

	handlerCalled := false
	c := cli.New("ping", "ping test")
	c.On("ping", func(rqst *request.CommandRequest) (any, error) {
		handlerCalled = true
		return nil, nil
	})
	a.Commands.Register(c)

	body := commandForm("ping", "")
	req := httptest.NewRequest(http.MethodPost, "/slack/command/ping", strings.NewReader(body))
	req.Header.Set("X-Slack-Request-Timestamp", fmt.Sprintf("%d", time.Now().Unix()))
	req.Header.Set("X-Slack-Signature", "v0=invalidsignature")
	rr := httptest.NewRecorder()
	a.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, handlerCalled, "handler must not run for an unverified request")
	api.assertNoCalls(t)
}

func TestCommandHandler_MissingSigningHeaders(t *testing.T) {
	a, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/slack/command/ping",
		strings.NewReader(commandForm("ping", "")))
	rr := httptest.NewRecorder()
	a.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCommandHandler_UnknownCommandName(t *testing.T) {
	a, _ := newTestApp(t)

	rr := postSigned(a.Handler(), "/slack/command/nope", commandForm("nope", ""))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "unable to process")
}

// --- interactive endpoint ---

func interactiveForm(payload string) string {
	return url.Values{"payload": {payload}}.Encode()
}

func blockActionsPayload(blockID, value string) string {
	return fmt.Sprintf(`{
		"type": "block_actions",
		"user": {"id": "U1"},
		"trigger_id": "tr1",
		"container": {"type": "message", "channel_id": "C9"},
		"actions": [
			{"type": "button", "action_id": "a1", "block_id": %q, "value": %q}
		]
	}`, blockID, value)
}

func TestInteractiveHandler_BlockActionDispatch(t *testing.T) {
	a, _ := newTestApp(t)

	var gotValue string
	a.IC.OnBlockActionEvent("demo.block", func(rqst *request.BlockActionRequest, action request.ActionEvent) (any, error) {
		gotValue = action.Str()
		return nil, nil
	})

	rr := postSigned(a.Handler(), "/slack/request",
		interactiveForm(blockActionsPayload("demo.block", "approve")))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Equal(t, "approve", gotValue)
}

func TestInteractiveHandler_BareArityNeverDecodes(t *testing.T) {
	a, _ := newTestApp(t)

	called := false
	a.IC.OnBlockAction("demo.block", func(rqst *request.BlockActionRequest) (any, error) {
		called = true
		return nil, nil
	})

	// an element type the decoder rejects; the bare form must still dispatch
	payload := `{
		"type": "block_actions",
		"user": {"id": "U1"},
		"container": {"type": "message", "channel_id": "C9"},
		"actions": [
			{"type": "overflow_9000", "action_id": "a1", "block_id": "demo.block"}
		]
	}`
	rr := postSigned(a.Handler(), "/slack/request", interactiveForm(payload))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)
}

func TestInteractiveHandler_UnregisteredBlockID(t *testing.T) {
	a, api := newTestApp(t)

	rr := postSigned(a.Handler(), "/slack/request",
		interactiveForm(blockActionsPayload("nobody.home", "x")))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String(), "an unroutable action is acknowledged, not errored")
	api.assertNoCalls(t)
}

func TestInteractiveHandler_ViewSubmissionInputs(t *testing.T) {
	a, _ := newTestApp(t)

	var gotInputs map[string]any
	a.IC.OnViewSubmissionInputs("cb1", func(rqst *request.ViewRequest, inputs map[string]any) (any, error) {
		gotInputs = inputs
		return slack.NewClearViewSubmissionResponse(), nil
	})

	payload := `{
		"type": "view_submission",
		"user": {"id": "U1"},
		"view": {
			"id": "V1",
			"type": "modal",
			"callback_id": "cb1",
			"state": {
				"values": {
					"b1": {"name": {"type": "plain_text_input", "value": "Jeremy"}}
				}
			}
		}
	}`
	rr := postSigned(a.Handler(), "/slack/request", interactiveForm(payload))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"name": "Jeremy"}, gotInputs)
	assert.Contains(t, rr.Body.String(), `"response_action":"clear"`)
}

// --- select endpoint ---

func TestSelectHandler_OptionsSerialization(t *testing.T) {
	a, _ := newTestApp(t)

	a.IC.OnSelectValue("demo.pick", func(rqst *request.OptionSelectRequest, action request.ActionEvent) (any, error) {
		return []*slack.OptionBlockObject{
			slack.NewOptionBlockObject("dc1-core-sw01",
				slack.NewTextBlockObject(slack.PlainTextType, "dc1-core-sw01", false, false), nil),
		}, nil
	})

	payload := `{
		"type": "block_suggestion",
		"user": {"id": "U1"},
		"action_id": "demo.pick",
		"block_id": "b1",
		"value": "dc1"
	}`
	rr := postSigned(a.Handler(), "/slack/select", interactiveForm(payload))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"options"`)
	assert.Contains(t, rr.Body.String(), "dc1-core-sw01")
}

func TestSelectHandler_BareAritySerializesOptions(t *testing.T) {
	a, _ := newTestApp(t)

	a.IC.OnSelect("demo.pick", func(rqst *request.OptionSelectRequest) (any, error) {
		return []*slack.OptionBlockObject{
			slack.NewOptionBlockObject("h1",
				slack.NewTextBlockObject(slack.PlainTextType, "h1", false, false), nil),
		}, nil
	})

	payload := `{
		"type": "block_suggestion",
		"user": {"id": "U1"},
		"action_id": "demo.pick",
		"value": "h"
	}`
	rr := postSigned(a.Handler(), "/slack/select", interactiveForm(payload))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"options"`,
		"the options wrapper applies regardless of handler arity")
	assert.Contains(t, rr.Body.String(), `"h1"`)
}

func TestSelectHandler_BareArityNilReturn(t *testing.T) {
	a, _ := newTestApp(t)

	a.IC.OnSelect("demo.pick", func(rqst *request.OptionSelectRequest) (any, error) {
		return nil, nil
	})

	payload := `{
		"type": "block_suggestion",
		"user": {"id": "U1"},
		"action_id": "demo.pick",
		"value": "zzz"
	}`
	rr := postSigned(a.Handler(), "/slack/select", interactiveForm(payload))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"options":[]}`, rr.Body.String())
}

func TestSelectHandler_EmptyOptions(t *testing.T) {
	a, _ := newTestApp(t)

	a.IC.OnSelectValue("demo.pick", func(rqst *request.OptionSelectRequest, action request.ActionEvent) (any, error) {
		return nil, nil
	})

	payload := `{
		"type": "block_suggestion",
		"user": {"id": "U1"},
		"action_id": "demo.pick",
		"value": "zzz"
	}`
	rr := postSigned(a.Handler(), "/slack/select", interactiveForm(payload))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"options":[]}`, rr.Body.String())
}

// --- events endpoint ---

func TestEventsHandler_URLVerification(t *testing.T) {
	a, _ := newTestApp(t)

	challenge := "test-challenge-token"
	body := fmt.Sprintf(`{"type":"url_verification","challenge":"%s"}`, challenge)
	rr := postSigned(a.Handler(), "/slack/events", body)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, challenge, rr.Body.String())
}

func TestEventsHandler_DispatchesRegisteredEventType(t *testing.T) {
	a, _ := newTestApp(t)

	handlerCalled := make(chan struct{})
	a.OnEvent("app_mention", func(rqst *request.EventRequest) error {
		close(handlerCalled)
		return nil
	})

	body := `{
		"type": "event_callback",
		"team_id": "T123",
		"event": {
			"type": "app_mention",
			"user": "U_USER",
			"text": "<@U_BOT> hello",
			"channel": "C123",
			"ts": "1234567890.123456"
		},
		"event_id": "Ev123"
	}`
	rr := postSigned(a.Handler(), "/slack/events", body)

	assert.Equal(t, http.StatusOK, rr.Code)

	select {
	case <-handlerCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event handler to be called")
	}
}

func TestEventsHandler_UnregisteredEventTypeAcks(t *testing.T) {
	a, _ := newTestApp(t)

	body := `{
		"type": "event_callback",
		"event": {"type": "reaction_added", "user": "U1"},
		"event_id": "Ev124"
	}`
	rr := postSigned(a.Handler(), "/slack/events", body)

	assert.Equal(t, http.StatusOK, rr.Code)
}
