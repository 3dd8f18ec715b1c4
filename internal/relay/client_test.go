package relay

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_Accepted(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events_received":1}`))
	}))
	defer srv.Close()

	c := New(Options{Endpoint: srv.URL, Timeout: 2 * time.Second})
	res := c.Send(context.Background(), map[string]any{"data": []int{1}})

	assert.Equal(t, Accepted, res.Status)
	assert.JSONEq(t, `{"events_received":1}`, string(res.Response))
	assert.JSONEq(t, `{"data":[1]}`, string(gotBody))
}

func TestSend_RejectedCarriesRemoteDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter"}}`))
	}))
	defer srv.Close()

	c := New(Options{Endpoint: srv.URL})
	res := c.Send(context.Background(), map[string]any{})

	assert.Equal(t, Rejected, res.Status)
	assert.Contains(t, res.Detail, "remote status 400")
	assert.Contains(t, res.Detail, "Invalid parameter")
}

func TestSend_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(Options{Endpoint: srv.URL, Timeout: time.Second})
	res := c.Send(context.Background(), map[string]any{})

	assert.Equal(t, TransportFailure, res.Status)
	assert.NotEmpty(t, res.Detail)
}

func TestSend_CredentialHeader(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("x-api-token")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(Options{Endpoint: srv.URL, CredentialHeader: "x-api-token", Credential: "secret"})
	res := c.Send(context.Background(), map[string]any{})

	require.Equal(t, Accepted, res.Status)
	assert.Equal(t, "secret", gotToken)
}

func TestSend_UnmarshalablePayloadIsRejected(t *testing.T) {
	c := New(Options{Endpoint: "http://localhost:0"})

	res := c.Send(context.Background(), map[string]any{"bad": func() {}})

	assert.Equal(t, Rejected, res.Status)
	assert.Contains(t, res.Detail, "encode payload")
}

func TestConversionEndpoint(t *testing.T) {
	u, err := ConversionEndpoint("https://graph.example.com/v19.0/123/events", "tok-1")
	require.NoError(t, err)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", parsed.Query().Get("access_token"))
	assert.Equal(t, "/v19.0/123/events", parsed.Path)
}

func TestConversionEndpoint_InvalidBaseFailsFast(t *testing.T) {
	_, err := ConversionEndpoint("://graph.example.com/events", "tok-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid conversion endpoint")
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "accepted", Accepted.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "transport_failure", TransportFailure.String())
}
