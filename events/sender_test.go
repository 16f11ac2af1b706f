package events

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-test-helpers/v3/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSDKKey      = "test-sdk-key"
	testEventsURI   = "https://fake-collector/api/v1/events/"
	briefRetryDelay = 10 * time.Millisecond
)

func makeTestSender(client *http.Client) *defaultEventSender {
	return &defaultEventSender{
		httpClient:     client,
		sdkKey:         testSDKKey,
		eventsURI:      testEventsURI,
		loggers:        ldlog.NewDisabledLoggers(),
		retryBaseDelay: briefRetryDelay,
	}
}

func deliveryErrorKind(t *testing.T, err error) DeliveryErrorKind {
	t.Helper()
	var de *DeliveryError
	require.True(t, errors.As(err, &de), "expected a *DeliveryError, got %v", err)
	return de.Kind
}

func TestSenderPostsEachEventIndividually(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(202))
	sender := makeTestSender(httphelpers.ClientFromHandler(handler))

	batch := makeTestEvents(3)
	require.NoError(t, sender.SendEvents(batch))

	require.Equal(t, 3, len(requestsCh))
	for i := 0; i < 3; i++ {
		r := <-requestsCh
		assert.Equal(t, http.MethodPost, r.Request.Method)
		assert.Equal(t, testEventsURI, r.Request.URL.String())
		expected, err := batch[i].marshalPayload()
		require.NoError(t, err)
		assert.JSONEq(t, string(expected), string(r.Body))
	}
}

func TestSenderSetsCredentialAndContentTypeHeaders(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(202))
	sender := makeTestSender(httphelpers.ClientFromHandler(handler))

	require.NoError(t, sender.SendEvents(makeTestEvents(1)))

	require.Equal(t, 1, len(requestsCh))
	r := <-requestsCh
	assert.Equal(t, testSDKKey, r.Request.Header.Get("X-App-Key"))
	assert.Equal(t, "application/json", r.Request.Header.Get("Content-Type"))
}

func TestSenderWithoutSDKKeyFailsWithoutSendingAnything(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(202))
	sender := makeTestSender(httphelpers.ClientFromHandler(handler))
	sender.sdkKey = ""

	err := sender.SendEvents(makeTestEvents(2))

	assert.Equal(t, DeliveryErrorNotConfigured, deliveryErrorKind(t, err))
	assert.Equal(t, 0, len(requestsCh))
}

func TestTerminalStatusesAreNeverRetried(t *testing.T) {
	cases := []struct {
		status int
		kind   DeliveryErrorKind
	}{
		{401, DeliveryErrorUnauthorized},
		{400, DeliveryErrorBadRequest},
		{302, DeliveryErrorInvalidResponse},
		{404, DeliveryErrorInvalidResponse},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("status %d", c.status), func(t *testing.T) {
			handler, requestsCh := httphelpers.RecordingHandler(
				httphelpers.SequentialHandler(
					httphelpers.HandlerWithStatus(c.status), // fails once
					httphelpers.HandlerWithStatus(202),      // never reached
				),
			)
			sender := makeTestSender(httphelpers.ClientFromHandler(handler))

			err := sender.SendEvents(makeTestEvents(1))

			assert.Equal(t, c.kind, deliveryErrorKind(t, err))
			assert.Equal(t, 1, len(requestsCh))
		})
	}
}

func TestRetryableStatusesRecoverAfterBackoff(t *testing.T) {
	for _, status := range []int{429, 500, 503} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			handler, requestsCh := httphelpers.RecordingHandler(
				httphelpers.SequentialHandler(
					httphelpers.HandlerWithStatus(status),
					httphelpers.HandlerWithStatus(202),
				),
			)
			sender := makeTestSender(httphelpers.ClientFromHandler(handler))

			require.NoError(t, sender.SendEvents(makeTestEvents(1)))
			assert.Equal(t, 2, len(requestsCh))
		})
	}
}

func TestRetryBudgetIsExhaustedAfterFourAttempts(t *testing.T) {
	cases := []struct {
		status int
		kind   DeliveryErrorKind
	}{
		{429, DeliveryErrorRateLimited},
		{500, DeliveryErrorServerError},
		{503, DeliveryErrorServerError},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("status %d", c.status), func(t *testing.T) {
			handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(c.status))
			sender := makeTestSender(httphelpers.ClientFromHandler(handler))

			err := sender.SendEvents(makeTestEvents(1))

			assert.Equal(t, c.kind, deliveryErrorKind(t, err))
			assert.Equal(t, 4, len(requestsCh))
		})
	}
}

func TestBackoffDelaysGrowExponentially(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(
		httphelpers.SequentialHandler(
			httphelpers.HandlerWithStatus(429),
			httphelpers.HandlerWithStatus(429),
			httphelpers.HandlerWithStatus(202),
		),
	)
	sender := makeTestSender(httphelpers.ClientFromHandler(handler))

	started := time.Now()
	require.NoError(t, sender.SendEvents(makeTestEvents(1)))
	elapsed := time.Since(started)

	// Two backoff waits: 1x base after the first failure, 2x base after the
	// second.
	assert.GreaterOrEqual(t, elapsed, 3*briefRetryDelay)
	assert.Equal(t, 3, len(requestsCh))
}

func TestNetworkErrorIsRetried(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(
		httphelpers.SequentialHandler(
			httphelpers.BrokenConnectionHandler(),
			httphelpers.HandlerWithStatus(202),
		),
	)
	sender := makeTestSender(httphelpers.ClientFromHandler(handler))

	require.NoError(t, sender.SendEvents(makeTestEvents(1)))
	assert.Equal(t, 2, len(requestsCh))
}

func TestPersistentNetworkErrorIsClassifiedAfterRetries(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(
		httphelpers.BrokenConnectionHandler(),
	)
	sender := makeTestSender(httphelpers.ClientFromHandler(handler))

	err := sender.SendEvents(makeTestEvents(1))

	assert.Equal(t, DeliveryErrorNetworkError, deliveryErrorKind(t, err))
	assert.Equal(t, 4, len(requestsCh))
}

type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "request timed out" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

type timeoutRoundTripper struct {
	calls int32
}

func (rt *timeoutRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	atomic.AddInt32(&rt.calls, 1)
	return nil, timeoutNetError{}
}

func TestTimeoutIsClassifiedAfterRetries(t *testing.T) {
	rt := &timeoutRoundTripper{}
	sender := makeTestSender(&http.Client{Transport: rt})

	err := sender.SendEvents(makeTestEvents(1))

	assert.Equal(t, DeliveryErrorTimeout, deliveryErrorKind(t, err))
	assert.Equal(t, int32(4), atomic.LoadInt32(&rt.calls))
}

func TestBatchDeliveryAbortsAtFirstTerminalError(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(
		httphelpers.SequentialHandler(
			httphelpers.HandlerWithStatus(401),
			httphelpers.HandlerWithStatus(202), // the second event must never get here
		),
	)
	sender := makeTestSender(httphelpers.ClientFromHandler(handler))

	err := sender.SendEvents(makeTestEvents(2))

	assert.Equal(t, DeliveryErrorUnauthorized, deliveryErrorKind(t, err))
	assert.Equal(t, 1, len(requestsCh))
}
