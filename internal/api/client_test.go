package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
)

type recorded struct {
	method      string
	path        string
	contentType string
	auth        string
	body        []byte
}

// stub answers every request with code/body and records the last request.
func stub(t *testing.T, code int, body string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*rec = recorded{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
			body:        b,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c, rec
}

func TestUpdateSendsFullRepresentation(t *testing.T) {
	c, rec := stub(t, http.StatusOK, `{"id":1,"title":"x","completed":true}`)

	got, err := c.Update(context.Background(), model.Todo{ID: 1, Title: "x"}.Toggled())
	require.NoError(t, err)

	assert.Equal(t, model.Todo{ID: 1, Title: "x", Completed: true}, got)
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/todos/1/", rec.path)
	assert.Equal(t, "application/json", rec.contentType)
	assert.Empty(t, rec.auth, "no Authorization header without a token")

	var sent map[string]any
	require.NoError(t, json.Unmarshal(rec.body, &sent))
	assert.Equal(t, map[string]any{"id": float64(1), "title": "x", "completed": true}, sent)
}

func TestDelete(t *testing.T) {
	c, rec := stub(t, http.StatusNoContent, "")

	require.NoError(t, c.Delete(context.Background(), 42))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/api/todos/42/", rec.path)
	assert.Empty(t, rec.body)
	assert.Empty(t, rec.contentType)
}

func TestListAndCreate(t *testing.T) {
	c, rec := stub(t, http.StatusOK, `[{"id":1,"title":"a","completed":false},{"id":2,"title":"b","completed":true}]`)

	todos, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Todo{{ID: 1, Title: "a"}, {ID: 2, Title: "b", Completed: true}}, todos)
	assert.Equal(t, "/api/todos/", rec.path)
	assert.Equal(t, http.MethodGet, rec.method)

	c, rec = stub(t, http.StatusCreated, `{"id":3,"title":"new","completed":false}`)
	created, err := c.Create(context.Background(), model.CreateRequest{Title: "new"})
	require.NoError(t, err)
	assert.Equal(t, model.Todo{ID: 3, Title: "new"}, created)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.JSONEq(t, `{"title":"new","completed":false}`, string(rec.body))
}

func TestNonSuccessIsStatusError(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		c, _ := stub(t, code, `{"detail":"nope"}`)

		_, err := c.Update(context.Background(), model.UpdateRequest{ID: 1, Title: "x"})
		require.Error(t, err)
		assert.True(t, IsStatus(err), "code %d: %v", code, err)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, code, se.Code)
		assert.Equal(t, "/api/todos/1/", se.Path)

		assert.True(t, IsStatus(c.Delete(context.Background(), 1)))
	}
}

func TestMalformedBodyIsNotStatusError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"missing completed", `{"id":1,"title":"x"}`},
		{"wrong type", `{"id":"1","title":"x","completed":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := stub(t, http.StatusOK, tt.body)
			_, err := c.Update(context.Background(), model.UpdateRequest{ID: 1, Title: "x"})
			require.Error(t, err)
			assert.False(t, IsStatus(err))
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	err = c.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, IsStatus(err))
}

func TestTokenHeader(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/", WithToken(" secret "), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth.Load())
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		err := c.Delete(context.Background(), 1)
		require.True(t, IsStatus(err), "attempt %d: %v", i, err)
	}

	err = c.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, IsStatus(err))
	assert.Equal(t, int32(4), hits.Load())
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	c, _ := stub(t, http.StatusNotFound, "")
	for i := 0; i < 10; i++ {
		err := c.Delete(context.Background(), 1)
		require.True(t, IsStatus(err), "attempt %d: %v", i, err)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("localhost:8000")
	assert.Error(t, err)
	_, err = New("://")
	assert.Error(t, err)
}
