// Package verify implements Slack request signing verification as described
// in https://api.slack.com/docs/verifying-requests-from-slack.
package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// ReplayWindow is the maximum allowed skew between the request timestamp and
// local time. Requests outside this window are rejected as possible replays.
const ReplayWindow = 5 * time.Minute

// SignatureHeader and TimestampHeader are the request headers Slack sets on
// every signed request. Their absence means the request did not come from
// api.slack.com.
const (
	SignatureHeader = "X-Slack-Signature"
	TimestampHeader = "X-Slack-Request-Timestamp"
)

var timeNow = time.Now

// Request validates an inbound request signature. The body must be the raw
// request bytes, read before any form parsing consumes them.
func Request(timestamp, signature string, body []byte, signingSecret string) bool {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}

	skew := timeNow().Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > ReplayWindow {
		return false
	}

	expected := Signature(timestamp, body, signingSecret)

	// hmac.Equal rather than ==, to avoid leaking a prefix match through
	// comparison timing.
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Signature computes the "v0=..." signature Slack would produce for the given
// timestamp and body.
func Signature(timestamp string, body []byte, signingSecret string) string {
	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}
