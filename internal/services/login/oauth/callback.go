package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/oauthlogin/internal/platform/errors"
	"github.com/louisbranch/oauthlogin/internal/services/login/session"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Callback outcomes reported to the Recorder.
const (
	OutcomeSuccess        = "success"
	OutcomeDenied         = "denied"
	OutcomeMalformed      = "malformed"
	OutcomeExchangeFailed = "exchange_failed"
	OutcomeProfileFailed  = "profile_failed"
	OutcomeSessionFailed  = "session_failed"
)

// Outbound provider operations reported to the Recorder.
const (
	OperationTokenExchange = "token_exchange"
	OperationProfileFetch  = "profile_fetch"
)

// maxResponseBytes caps provider response bodies.
const maxResponseBytes = 1 << 20

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Has("error") {
		providerErr := query.Get("error")
		denied := apperrors.WithMetadata(apperrors.CodeProviderDenied, "provider denied authorization",
			map[string]string{"provider": s.provider.Name, "error": providerErr})
		log.Printf("warning: provider=%s code=%s: %v error=%q", s.provider.Name, denied.Code, denied, providerErr)
		s.metrics.ObserveCallback(s.provider.Name, outcomeFor(denied.Code))
		s.continuations.OnError(w, r, providerErr)
		return
	}

	code := query.Get("code")
	if code == "" {
		s.fail(w, apperrors.New(apperrors.CodeCallbackMissingCode, "callback carries neither code nor error"))
		return
	}

	ctx := r.Context()
	token, err := s.exchangeToken(ctx, code, s.redirectURI(r))
	if err != nil {
		s.fail(w, err)
		return
	}

	identity, err := s.provider.Strategy.Identify(ctx, token, s.fetchProfile)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.CodeUnknown {
			err = apperrors.Wrap(apperrors.CodeProfileFetchFailed, "resolve identity", err)
		}
		s.fail(w, err)
		return
	}

	if identity.Name != "" {
		if err := s.bindUser(w, r, identity.Name); err != nil {
			s.fail(w, err)
			return
		}
	}

	s.metrics.ObserveCallback(s.provider.Name, OutcomeSuccess)
	s.continuations.OnLogin(w, r, identity.Payload)
}

// bindUser performs the single session read and write of a callback.
func (s *Server) bindUser(w http.ResponseWriter, r *http.Request, name string) error {
	sess, err := s.sessions.Load(r)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeSessionUnavailable, "load session", err)
	}
	sess.Set(session.KeyUser, name)
	if err := s.sessions.Save(w, sess); err != nil {
		return apperrors.Wrap(apperrors.CodeSessionUnavailable, "save session", err)
	}
	return nil
}

// exchangeToken trades the authorization code for the provider's token
// response. The call is never retried.
func (s *Server) exchangeToken(ctx context.Context, code, redirectURI string) (map[string]any, error) {
	fields := map[string]string{
		"client_id":     s.provider.ClientID,
		"client_secret": s.provider.ClientSecret,
		"code":          code,
		"redirect_uri":  redirectURI,
		"grant_type":    "authorization_code",
	}

	var (
		body        []byte
		contentType string
	)
	switch s.provider.Encoding {
	case EncodingForm:
		form := url.Values{}
		for key, value := range fields {
			form.Set(key, value)
		}
		body = []byte(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		encoded, err := json.Marshal(fields)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeTokenExchangeFailed, "encode token request", err)
		}
		body = encoded
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.provider.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTokenExchangeFailed, "build token request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	return s.doJSON(ctx, OperationTokenExchange, apperrors.CodeTokenExchangeFailed, req)
}

func (s *Server) fetchProfile(ctx context.Context, req *http.Request) (map[string]any, error) {
	return s.doJSON(ctx, OperationProfileFetch, apperrors.CodeProfileFetchFailed, req)
}

// doJSON sends req under a bounded deadline and decodes a JSON object from
// a 2xx response. Numbers stay json.Number so large ids echo unchanged.
// Every failure carries code.
func (s *Server) doJSON(ctx context.Context, operation string, code apperrors.Code, req *http.Request) (map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "oauth."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("oauth.provider", s.provider.Name)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.clock()
	resp, err := s.client.Do(req.WithContext(ctx))
	s.metrics.ObserveProviderRequest(s.provider.Name, operation, s.clock().Sub(start))
	if err != nil {
		return nil, spanError(span, apperrors.Wrap(code, operation+" request failed", redactURL(err)))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, spanError(span, apperrors.WithMetadata(code,
			fmt.Sprintf("%s returned status %d", operation, resp.StatusCode),
			map[string]string{"provider": s.provider.Name, "status": strconv.Itoa(resp.StatusCode)}))
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, spanError(span, apperrors.Wrap(code, "decode "+operation+" response", err))
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, spanError(span, apperrors.New(code, "trailing data after "+operation+" response"))
	}
	if payload == nil {
		return nil, spanError(span, apperrors.New(code, operation+" response is not a json object"))
	}
	return payload, nil
}

// fail ends the callback with a generic error response. Nothing is written
// to the session.
func (s *Server) fail(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	log.Printf("provider=%s callback failed code=%s: %v", s.provider.Name, code, err)
	s.metrics.ObserveCallback(s.provider.Name, outcomeFor(code))
	apperrors.WriteHTTP(w, err)
}

func outcomeFor(code apperrors.Code) string {
	switch code {
	case apperrors.CodeProviderDenied:
		return OutcomeDenied
	case apperrors.CodeCallbackMissingCode:
		return OutcomeMalformed
	case apperrors.CodeTokenExchangeFailed:
		return OutcomeExchangeFailed
	case apperrors.CodeProfileFetchFailed:
		return OutcomeProfileFailed
	case apperrors.CodeSessionUnavailable:
		return OutcomeSessionFailed
	default:
		return strings.ToLower(string(code))
	}
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}

// redactURL drops the request url from transport errors so query tokens
// never reach logs or spans.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
