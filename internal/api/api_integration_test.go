package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "demobank/internal"
)

// testApp is the global application instance for testing.
var testApp *app.Application

// testServer is the httptest server.
var testServer *httptest.Server

// TestMain is the special entry point for Go tests, executed once before all tests.
func TestMain(m *testing.M) {
	// 1. Point the store at a throwaway directory and shorten the loan delay.
	storeDir, err := os.MkdirTemp("", "demobank-api-test")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create temp store dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(storeDir)

	os.Setenv("STORE_BACKEND", "file")
	os.Setenv("STORE_PATH", storeDir)
	os.Setenv("LOAN_DELAY_MS", "50")

	// 2. Initialize the application.
	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1)
	}

	// 3. Start an httptest server to test the HTTP handling layer.
	testServer = httptest.NewServer(testApp.HTTPHandler)
	defer testServer.Close()

	// 4. Run all tests.
	code := m.Run()

	// 5. Shut down application resources after tests.
	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		os.Exit(1)
	}

	os.Exit(code)
}

// dashboardPayload mirrors the JSON the dashboard endpoints return.
type dashboardPayload struct {
	Welcome         string `json:"welcome"`
	HeaderDate      string `json:"header_date"`
	Balance         string `json:"balance"`
	SummaryIn       string `json:"summary_in"`
	SummaryOut      string `json:"summary_out"`
	SummaryInterest string `json:"summary_interest"`
	Clock           string `json:"clock"`
	Movements       []struct {
		Ordinal int    `json:"ordinal"`
		Type    string `json:"type"`
		Date    string `json:"date"`
		Amount  string `json:"amount"`
	} `json:"movements"`
}

type authPayload struct {
	Token     string           `json:"token"`
	Dashboard dashboardPayload `json:"dashboard"`
}

func doRequest(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, testServer.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func login(t *testing.T, username, pin string) authPayload {
	t.Helper()
	resp := doRequest(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"pin":      pin,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payload authPayload
	decodeBody(t, resp, &payload)
	require.NotEmpty(t, payload.Token)
	return payload
}

func TestHealth(t *testing.T) {
	resp, err := http.Get(testServer.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "sm",
		"pin":      "9999",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginTransferLogoutFlow(t *testing.T) {
	auth := login(t, "sm", "1111")
	assert.Equal(t, "Welcome back, Sarah!", auth.Dashboard.Welcome)
	assert.Equal(t, "€25,952.59", auth.Dashboard.Balance)
	require.NotEmpty(t, auth.Dashboard.Movements)

	// Transfer 100 to the other seed account.
	resp := doRequest(t, http.MethodPost, "/transfers", auth.Token, map[string]interface{}{
		"to":     "jd",
		"amount": "100",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var afterTransfer dashboardPayload
	decodeBody(t, resp, &afterTransfer)
	assert.Equal(t, "€25,852.59", afterTransfer.Balance)
	assert.Equal(t, "withdrawal", afterTransfer.Movements[0].Type)
	assert.Equal(t, "Today", afterTransfer.Movements[0].Date)

	// The receiver sees the deposit on their own dashboard.
	receiver := login(t, "jd", "2222")
	assert.Equal(t, "deposit", receiver.Dashboard.Movements[0].Type)
	assert.Equal(t, "$100.00", receiver.Dashboard.Movements[0].Amount)

	// Logout ends the sender's session; the dashboard is gone.
	resp = doRequest(t, http.MethodPost, "/auth/logout", auth.Token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, "/dashboard", auth.Token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTransferToUnknownAccount(t *testing.T) {
	auth := login(t, "sm", "1111")

	resp := doRequest(t, http.MethodPost, "/transfers", auth.Token, map[string]interface{}{
		"to":     "nobody",
		"amount": "10",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, "/auth/logout", auth.Token, nil)
	resp.Body.Close()
}

func TestRegisterAndSortToggle(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/auth/register", "", map[string]interface{}{
		"full_name":       "Walter Quinn",
		"pin":             "4242",
		"initial_balance": "750",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var auth authPayload
	decodeBody(t, resp, &auth)
	assert.Equal(t, "Welcome back, Walter!", auth.Dashboard.Welcome)
	assert.Equal(t, "$750.00", auth.Dashboard.Balance)
	require.Len(t, auth.Dashboard.Movements, 1)

	// Sorting with a single movement is a stable no-op; the endpoint still
	// re-renders.
	resp = doRequest(t, http.MethodPost, "/dashboard/sort", auth.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sorted dashboardPayload
	decodeBody(t, resp, &sorted)
	assert.Equal(t, auth.Dashboard.Movements, sorted.Movements)

	resp = doRequest(t, http.MethodPost, "/auth/logout", auth.Token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoanLandsAfterProcessingDelay(t *testing.T) {
	auth := login(t, "jd", "2222")
	before := len(auth.Dashboard.Movements)

	resp := doRequest(t, http.MethodPost, "/loans", auth.Token, map[string]interface{}{
		"amount": "1000",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		resp := doRequest(t, http.MethodGet, "/dashboard", auth.Token, nil)
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return false
		}
		var d dashboardPayload
		decodeBody(t, resp, &d)
		return len(d.Movements) == before+1
	}, 2*time.Second, 20*time.Millisecond)

	resp = doRequest(t, http.MethodPost, "/auth/logout", auth.Token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoanRejectedWithoutQualifyingDeposit(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/auth/register", "", map[string]interface{}{
		"full_name":       "Tiny Saver",
		"pin":             "1212",
		"initial_balance": "5",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var auth authPayload
	decodeBody(t, resp, &auth)

	// Largest deposit is 5; a 1000 loan needs one >= 100.
	resp = doRequest(t, http.MethodPost, "/loans", auth.Token, map[string]interface{}{
		"amount": "1000",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, "/auth/logout", auth.Token, nil)
	resp.Body.Close()
}
