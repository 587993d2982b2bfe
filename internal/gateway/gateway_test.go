package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/macrotrack/apiserver/config"
	"github.com/macrotrack/apiserver/internal/server"
	"github.com/macrotrack/apiserver/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	event := events.APIGatewayProxyRequest{
		Path:                  "/track-macros",
		HTTPMethod:            "get",
		Headers:               map[string]string{"x-security-key": "secret", "Host": "api.example.com"},
		QueryStringParameters: map[string]string{"date": "2024-01-01"},
		MultiValueQueryStringParameters: map[string][]string{
			"tag": {"a", "b"},
		},
	}

	req, err := NewRequest(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/track-macros", req.URL.Path)
	assert.Equal(t, "2024-01-01", req.URL.Query().Get("date"))
	assert.Equal(t, []string{"a", "b"}, req.URL.Query()["tag"])
	assert.Equal(t, "secret", req.Header.Get("X-Security-Key"))
	assert.Equal(t, "api.example.com", req.Host)
}

func TestNewRequestDecodesBase64Body(t *testing.T) {
	event := events.APIGatewayProxyRequest{
		Path:            "/log-meal",
		HTTPMethod:      http.MethodPost,
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"date":"d"}`)),
		IsBase64Encoded: true,
	}

	req, err := NewRequest(context.Background(), event)
	require.NoError(t, err)
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"date":"d"}`, string(body))

	event.Body = "%%%"
	req, err = NewRequest(context.Background(), event)
	require.NoError(t, err)
	body, err = io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "%%%", string(body))
}

func TestInvoke(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`"` + r.Method + " " + r.URL.Path + " " + string(body) + `"`))
	})

	resp, err := New(handler).Invoke(context.Background(), events.APIGatewayProxyRequest{
		Path:       "/set-goals",
		HTTPMethod: http.MethodPost,
		Body:       "x",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, `"POST /set-goals x"`, resp.Body)
	assert.False(t, resp.IsBase64Encoded)
}

func TestInvokeEncodesBinaryBodies(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0xff, 0xfe})
	})

	resp, err := New(handler).Invoke(context.Background(), events.APIGatewayProxyRequest{Path: "/"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.IsBase64Encoded)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe}), resp.Body)
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	repos := server.MemoryRepositories()
	_, err := services.Provision(context.Background(), repos.AllowList, "key-1")
	require.NoError(t, err)

	srv, err := server.NewWithRepositories(config.Config{
		Auth: config.AuthConfig{Mode: config.AuthModeHeader, Header: "X-Security-Key"},
	}, repos, nil, log)
	require.NoError(t, err)
	return srv.Handler()
}

func decodeBody(t *testing.T, resp events.APIGatewayProxyResponse) string {
	t.Helper()
	var message string
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &message), resp.Body)
	return message
}

func TestInvokeUndecodableBodyStillAuthenticates(t *testing.T) {
	adapter := New(newRouter(t))
	event := events.APIGatewayProxyRequest{
		Path:            "/set-goals",
		HTTPMethod:      http.MethodPost,
		Body:            "%%%",
		IsBase64Encoded: true,
	}

	resp, err := adapter.Invoke(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, "Missing security key.", decodeBody(t, resp))

	event.Headers = map[string]string{"x-security-key": "key-1"}
	resp, err = adapter.Invoke(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid JSON body.", decodeBody(t, resp))
}

func TestInvokeUnbuildableRequestIsInternalError(t *testing.T) {
	resp, err := New(newRouter(t)).Invoke(context.Background(), events.APIGatewayProxyRequest{
		Path:       "/set-goals",
		HTTPMethod: "BAD METHOD",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, "Internal server error.", decodeBody(t, resp))
}
