package services

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
	"golang.org/x/oauth2"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/config"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/security"
)

const testStateSecret = "integration-test-secret-0123456789abcdef"

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestIntegrationService(t *testing.T) (IntegrationService, *security.StateSigner) {
	t.Helper()
	db := setupTestDB(t)
	tokenSrv := newTokenServer(t)
	signer, err := security.NewStateSigner(testStateSecret, time.Minute)
	require.NoError(t, err)

	svc := NewIntegrationService(db, signer, IntegrationOptions{
		Credentials: map[string]config.OAuthCredentials{
			"xero":  {ClientID: "xero-id", ClientSecret: "xero-secret"},
			"tally": {ClientID: "tally-id", ClientSecret: "tally-secret"},
		},
		RedirectBaseURL: "http://localhost:8080/api/integrations",
		Endpoints: map[string]oauth2.Endpoint{
			"xero": {AuthURL: tokenSrv.URL + "/authorize", TokenURL: tokenSrv.URL + "/token"},
		},
	})
	return svc, signer
}

func TestCatalog(t *testing.T) {
	svc, _ := newTestIntegrationService(t)

	catalog := svc.Catalog()
	require.Len(t, catalog, 5)
	available := map[string]bool{}
	for _, s := range catalog {
		available[s.ID] = s.IsAvailable
		assert.NotEmpty(t, s.Name)
		assert.NotEmpty(t, s.Description)
	}
	assert.Equal(t, map[string]bool{
		"quickbooks": false,
		"myob":       false,
		"tally":      false,
		"xero":       true,
		"sage":       false,
	}, available)

	catalog[0].Name = "mutated"
	assert.NotEqual(t, "mutated", svc.Catalog()[0].Name)
}

func TestAuthURL(t *testing.T) {
	svc, signer := newTestIntegrationService(t)

	raw, err := svc.AuthURL("xero", 3)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "xero-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8080/api/integrations/xero/callback", q.Get("redirect_uri"))
	assert.Equal(t, "offline", q.Get("access_type"))

	clientID, err := signer.Verify(q.Get("state"), "xero")
	require.NoError(t, err)
	assert.Equal(t, int64(3), clientID)

	_, err = svc.AuthURL("freshbooks", 3)
	assert.ErrorIs(t, err, ErrIntegrationNotFound)
	_, err = svc.AuthURL("quickbooks", 3)
	assert.ErrorIs(t, err, ErrIntegrationUnavailable)
	_, err = svc.AuthURL("tally", 3)
	assert.ErrorIs(t, err, ErrIntegrationUnavailable)
}

func TestCompleteRecordsConnection(t *testing.T) {
	svc, signer := newTestIntegrationService(t)
	ctx := context.Background()

	state, err := signer.Issue("xero", 2)
	require.NoError(t, err)

	conn, err := svc.Complete(ctx, "xero", "good-code", state)
	require.NoError(t, err)
	assert.NotZero(t, conn.ID)
	assert.Equal(t, int64(2), conn.ClientID)
	assert.Equal(t, "xero", conn.SoftwareID)
	require.NotNil(t, conn.ExpiresAt)
	assert.True(t, conn.ExpiresAt.After(time.Now()))

	conns, err := svc.Connections(ctx, 2)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, conn.ID, conns[0].ID)

	_, err = svc.Connections(ctx, 77)
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestCompleteRejections(t *testing.T) {
	svc, signer := newTestIntegrationService(t)
	ctx := context.Background()

	good, err := signer.Issue("xero", 1)
	require.NoError(t, err)
	otherSoftware, err := signer.Issue("sage", 1)
	require.NoError(t, err)
	missingClient, err := signer.Issue("xero", 99)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, "xero", "good-code", "garbage")
	assert.ErrorIs(t, err, security.ErrInvalidState)

	_, err = svc.Complete(ctx, "xero", "good-code", otherSoftware)
	assert.ErrorIs(t, err, security.ErrInvalidState)

	_, err = svc.Complete(ctx, "xero", "good-code", missingClient)
	assert.ErrorIs(t, err, ErrClientNotFound)

	_, err = svc.Complete(ctx, "xero", "bad-code", good)
	assert.Error(t, err)

	_, err = svc.Complete(ctx, "sage", "good-code", otherSoftware)
	assert.ErrorIs(t, err, ErrIntegrationUnavailable)

	conns, err := svc.Connections(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, conns)
}
