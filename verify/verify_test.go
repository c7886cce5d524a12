package verify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testSecret = "test-signing-secret"

func TestRequest_ValidSignature(t *testing.T) {
	body := []byte("command=%2Fping&user_id=U123&text=public")
	ts := fmt.Sprintf("%d", time.Now().Unix())
	sig := Signature(ts, body, testSecret)

	assert.True(t, Request(ts, sig, body, testSecret))
}

func TestRequest_TamperedBody(t *testing.T) {
	body := []byte("command=%2Fping&user_id=U123&text=public")
	ts := fmt.Sprintf("%d", time.Now().Unix())
	sig := Signature(ts, body, testSecret)

	tampered := []byte("command=%2Fping&user_id=UEVIL&text=public")
	assert.False(t, Request(ts, sig, tampered, testSecret))
}

func TestRequest_WrongSecret(t *testing.T) {
	body := []byte("hello")
	ts := fmt.Sprintf("%d", time.Now().Unix())
	sig := Signature(ts, body, "some-other-secret")

	assert.False(t, Request(ts, sig, body, testSecret))
}

func TestRequest_StaleTimestamp(t *testing.T) {
	now := time.Now()
	timeNow = func() time.Time { return now }
	defer func() { timeNow = time.Now }()

	stale := now.Add(-ReplayWindow - time.Second)
	ts := fmt.Sprintf("%d", stale.Unix())
	body := []byte("hello")
	sig := Signature(ts, body, testSecret)

	assert.False(t, Request(ts, sig, body, testSecret),
		"a correctly signed request outside the replay window must be rejected")
}

func TestRequest_FutureTimestampWithinWindow(t *testing.T) {
	now := time.Now()
	timeNow = func() time.Time { return now }
	defer func() { timeNow = time.Now }()

	future := now.Add(time.Minute)
	ts := fmt.Sprintf("%d", future.Unix())
	body := []byte("hello")
	sig := Signature(ts, body, testSecret)

	assert.True(t, Request(ts, sig, body, testSecret))
}

func TestRequest_MalformedTimestamp(t *testing.T) {
	body := []byte("hello")
	sig := Signature("not-a-number", body, testSecret)

	assert.False(t, Request("not-a-number", sig, body, testSecret))
}

func TestSignature_Format(t *testing.T) {
	sig := Signature("1234567890", []byte("body"), testSecret)

	assert.Regexp(t, `^v0=[0-9a-f]{64}$`, sig)
}
