package test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "ok")

	resp, err = http.Get(server.URL() + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp, err := http.Post(server.URL()+"/api/members", "application/json", strings.NewReader(`{"name":"Eve"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	status, body := server.PostJSON(t, "/api/login", map[string]any{
		"email": "desk@example.com", "password": "desk-password",
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "Bearer", body["token_type"])

	status, _ = server.PostJSON(t, "/api/login", map[string]any{
		"email": "desk@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestFullCirculationFlow(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	status, member := server.PostJSON(t, "/api/members", map[string]any{
		"id": "U100", "name": "Asha", "email": "asha@example.com",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(100), member["creditScore"])

	status, _ = server.PostJSON(t, "/api/books", map[string]any{
		"id": "B100", "title": "The Go Programming Language", "author": "Donovan", "category": "GENERAL", "copies": 2,
	})
	require.Equal(t, http.StatusCreated, status)

	status, member = server.PostJSON(t, "/api/borrow", map[string]any{"userId": "U100", "bookId": "B100"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), member["openLoans"])

	var book map[string]any
	status = server.GetJSON(t, "/api/books/B100", &book)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), book["availableCopies"])

	status, member = server.PostJSON(t, "/api/return", map[string]any{"userId": "U100", "bookId": "B100"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), member["openLoans"])
	assert.Equal(t, float64(103), member["creditScore"], "borrow bonus plus on-time return bonus")

	var events []map[string]any
	status = server.GetJSON(t, "/api/events", &events)
	require.Equal(t, http.StatusOK, status)

	var types []string
	for _, e := range events {
		types = append(types, e["type"].(string))
	}
	assert.Contains(t, types, "book_borrowed")
	assert.Contains(t, types, "book_returned")
}

func TestReservationQueueFlow(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	for _, m := range []map[string]any{
		{"id": "U200", "name": "First"},
		{"id": "U201", "name": "Second", "email": "second@example.com"},
	} {
		status, _ := server.PostJSON(t, "/api/members", m)
		require.Equal(t, http.StatusCreated, status)
	}
	status, _ := server.PostJSON(t, "/api/books", map[string]any{
		"id": "B200", "title": "Single Copy", "category": "GENERAL", "copies": 1,
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = server.PostJSON(t, "/api/borrow", map[string]any{"userId": "U200", "bookId": "B200"})
	require.Equal(t, http.StatusOK, status)

	// No copies left: second borrower is refused and reserves instead.
	status, _ = server.PostJSON(t, "/api/borrow", map[string]any{"userId": "U201", "bookId": "B200"})
	assert.Equal(t, http.StatusConflict, status)

	resp := postRaw(t, server, "/api/reserve", `{"userId":"U201","bookId":"B200"}`)
	assert.Equal(t, http.StatusNoContent, resp)

	status, _ = server.PostJSON(t, "/api/return", map[string]any{"userId": "U200", "bookId": "B200"})
	require.Equal(t, http.StatusOK, status)

	status, book := server.PostJSON(t, "/api/books/B200/process", map[string]any{})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), book["availableCopies"], "queued member received the returned copy")
	assert.Equal(t, float64(0), book["reservations"])

	var member map[string]any
	server.GetJSON(t, "/api/members/U201", &member)
	assert.Equal(t, float64(1), member["openLoans"])
}

func TestFinePaymentFlow(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	status, _ := server.PostJSON(t, "/api/members", map[string]any{"id": "U300", "name": "Late"})
	require.Equal(t, http.StatusCreated, status)

	user, err := server.Library.GetUser("U300")
	require.NoError(t, err)
	user.SetFines(12.5)

	status, member := server.PostJSON(t, "/api/fines/pay", map[string]any{"userId": "U300", "amount": 12.5})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), member["fines"])
	assert.Equal(t, "ACTIVE", member["status"])
}

func TestErrorMapping(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	status, _ := server.PostJSON(t, "/api/borrow", map[string]any{"userId": "nope", "bookId": "nope"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = server.PostJSON(t, "/api/books", map[string]any{"id": "B400", "title": "Once", "copies": 1})
	require.Equal(t, http.StatusCreated, status)
	status, _ = server.PostJSON(t, "/api/books", map[string]any{"id": "B400", "title": "Twice", "copies": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func postRaw(t *testing.T, server *TestServerHelper, path, payload string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, server.URL()+path, strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+server.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}
