package events

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

const (
	appKeyHeader          = "X-App-Key"
	maxRetries            = 3 // retries per event, so up to 4 attempts in total
	defaultRetryBaseDelay = 2 * time.Second
)

type defaultEventSender struct {
	httpClient     *http.Client
	sdkKey         string
	eventsURI      string
	loggers        ldlog.Loggers
	retryBaseDelay time.Duration
}

// NewEventSender creates the standard EventSender, which posts each event to
// eventsURI with the SDK key in the X-App-Key header. If httpClient is nil, a
// client with DefaultRequestTimeout is used; the per-attempt timeout is
// whatever the supplied client enforces.
func NewEventSender(httpClient *http.Client, sdkKey string, eventsURI string, loggers ldlog.Loggers) EventSender {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRequestTimeout}
	}
	return &defaultEventSender{
		httpClient:     httpClient,
		sdkKey:         sdkKey,
		eventsURI:      eventsURI,
		loggers:        loggers,
		retryBaseDelay: defaultRetryBaseDelay,
	}
}

func (s *defaultEventSender) Configured() bool {
	return s.sdkKey != ""
}

func (s *defaultEventSender) SendEvents(events []Event) error {
	if !s.Configured() {
		return &DeliveryError{Kind: DeliveryErrorNotConfigured}
	}
	sent := 0
	for _, e := range events {
		if err := s.sendEvent(e); err != nil {
			s.loggers.Warnf("Delivered %d of %d event(s) before giving up: %s", sent, len(events), err)
			return err
		}
		sent++
	}
	s.loggers.Debugf("Delivered %d event(s)", sent)
	return nil
}

// sendEvent attempts delivery of one event, retrying retryable failures with
// exponential backoff (2s, 4s, 8s by default). It returns nil on success and
// a *DeliveryError once the outcome is terminal.
func (s *defaultEventSender) sendEvent(e Event) error {
	payload, err := e.marshalPayload()
	if err != nil {
		// Can't happen for a flat struct of strings; drop the event rather
		// than wedge the queue behind it.
		s.loggers.Errorf("Unexpected error marshalling event JSON: %s", err)
		return nil
	}
	s.loggers.Debugf("Sending event: %s", payload)

	for attempt := 1; ; attempt++ {
		kind, statusCode, reqErr := s.postEvent(payload)
		if kind == "" {
			return nil
		}
		if kind.Retryable() && attempt <= maxRetries {
			delay := s.retryBaseDelay << (attempt - 1)
			s.loggers.Warnf("Event delivery attempt %d failed (%s); will retry in %s", attempt, kind, delay)
			time.Sleep(delay)
			continue
		}
		return &DeliveryError{Kind: kind, StatusCode: statusCode, Err: reqErr}
	}
}

// postEvent performs a single HTTP attempt and classifies the outcome. An
// empty kind means success.
func (s *defaultEventSender) postEvent(payload []byte) (DeliveryErrorKind, int, error) {
	req, err := http.NewRequest(http.MethodPost, s.eventsURI, bytes.NewReader(payload))
	if err != nil {
		return DeliveryErrorNetworkError, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(appKeyHeader, s.sdkKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			return DeliveryErrorTimeout, 0, err
		}
		return DeliveryErrorNetworkError, 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	switch {
	case resp.StatusCode/100 == 2:
		return "", resp.StatusCode, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return DeliveryErrorUnauthorized, resp.StatusCode, nil
	case resp.StatusCode == http.StatusBadRequest:
		return DeliveryErrorBadRequest, resp.StatusCode, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return DeliveryErrorRateLimited, resp.StatusCode, nil
	case resp.StatusCode >= 500:
		return DeliveryErrorServerError, resp.StatusCode, nil
	default:
		return DeliveryErrorInvalidResponse, resp.StatusCode, nil
	}
}
