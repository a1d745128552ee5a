package notify

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	failures int
	calls    int
	lastTo   string
}

func (f *fakeSender) Send(ctx context.Context, to, body string) error {
	f.calls++
	f.lastTo = to
	if f.calls <= f.failures {
		return errors.New("transport unavailable")
	}
	return nil
}

func testPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func testLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"08011112222", "+2348011112222"},
		{"0801 111 2222", "+2348011112222"},
		{"+2348011112222", "+2348011112222"},
		{"2348011112222", "+2348011112222"},
		{"(080) 1111-2222", "+2348011112222"},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.in, "234")
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizePhoneRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not a number", "12ab34", "+12x4567890", "12345"} {
		_, err := NormalizePhone(in, "234")
		require.ErrorIs(t, err, ErrInvalidPhone, in)
	}
}

func TestSendRetriesThenSucceeds(t *testing.T) {
	sender := &fakeSender{failures: 2}
	n := NewNotifier(sender, testPolicy(), "234", testLog())

	err := n.Send(context.Background(), "08011112222", "hello")
	require.NoError(t, err)
	assert.Equal(t, 3, sender.calls)
	assert.Equal(t, "+2348011112222", sender.lastTo)
}

func TestSendSurfacesTerminalFailure(t *testing.T) {
	sender := &fakeSender{failures: 10}
	n := NewNotifier(sender, testPolicy(), "234", testLog())

	err := n.Send(context.Background(), "08011112222", "hello")
	require.Error(t, err)
	assert.Equal(t, 3, sender.calls, "attempts are bounded")
}

func TestSendInvalidPhoneSkipsTransport(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, testPolicy(), "234", testLog())

	err := n.Send(context.Background(), "nope", "hello")
	require.ErrorIs(t, err, ErrInvalidPhone)
	assert.Zero(t, sender.calls)
}

func TestSendHonorsContextCancellation(t *testing.T) {
	sender := &fakeSender{failures: 10}
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}
	n := NewNotifier(sender, policy, "234", testLog())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := n.Send(ctx, "08011112222", "hello")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sender.calls)
}
