package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/config"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/database"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/models"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/security"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/services"
)

func init() {
	logger.InitLogger("error")
}

const testUploadLimit = 1 << 20

type fakeCompletion struct {
	text string
	err  error
}

func (f *fakeCompletion) Complete(ctx context.Context, req services.CompletionRequest) (string, error) {
	return f.text, f.err
}

type testServer struct {
	router http.Handler
	signer *security.StateSigner
}

func newTestServer(t *testing.T, completion services.CompletionClient) *testServer {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "handlers.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"at","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(tokenSrv.Close)

	signer, err := security.NewStateSigner("handlers-test-secret-0123456789abcdef", time.Minute)
	require.NoError(t, err)

	advisory := services.NewAdvisoryService(completion, nil, services.AdvisoryConfig{})
	clients := services.NewClientService(db, advisory, nil, testUploadLimit)
	integrations := services.NewIntegrationService(db, signer, services.IntegrationOptions{
		Credentials:     map[string]config.OAuthCredentials{"xero": {ClientID: "xero-id", ClientSecret: "s"}},
		RedirectBaseURL: "http://localhost:8080/api/integrations",
		Endpoints: map[string]oauth2.Endpoint{
			"xero": {AuthURL: tokenSrv.URL + "/authorize", TokenURL: tokenSrv.URL + "/token"},
		},
	})

	router := NewRouter(&Handlers{
		DB:          db,
		Regions:     NewRegionHandler(nil),
		Advisory:    NewAdvisoryHandler(advisory),
		Clients:     NewClientHandler(clients, integrations, testUploadLimit),
		Integration: NewIntegrationHandler(integrations, clients),
	})
	return &testServer{router: router, signer: signer}
}

func (s *testServer) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) postJSON(t *testing.T, target string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return s.do(t, http.MethodPost, target, bytes.NewReader(body), "application/json")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeCompletion{text: "ok"})
	rec := s.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRegionEndpoints(t *testing.T) {
	s := newTestServer(t, &fakeCompletion{text: "ok"})

	rec := s.do(t, http.MethodGet, "/api/regions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []regionSummary
	decode(t, rec, &list)
	assert.Len(t, list, 8)
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	rec = s.do(t, http.MethodGet, "/api/regions/estimate?region="+url.QueryEscape("US - California")+"&income=100000", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var est estimateResponse
	decode(t, rec, &est)
	assert.True(t, est.Known)
	assert.Equal(t, 0.22, est.Rate)
	assert.Equal(t, "$22,000", est.LiabilityFormatted)
	assert.Equal(t, "USD", est.Currency)

	rec = s.do(t, http.MethodGet, "/api/regions/estimate?region=Atlantis&income=5000", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &est)
	assert.False(t, est.Known)
	assert.Equal(t, 0.20, est.Rate)

	rec = s.do(t, http.MethodGet, "/api/regions/estimate?region=Singapore&income=lots", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/regions/estimate?income=100", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/regions/deductions?region="+url.QueryEscape("US - Texas"), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ded deductionsResponse
	decode(t, rec, &ded)
	assert.Contains(t, ded.Deductions, "Property Tax Deductions")
	assert.Contains(t, ded.Insights, "Based on your US - Texas tax filing")
}

func TestAdvisoryEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeCompletion{text: "Contribute to a 401(k)."})

	rec := s.postJSON(t, "/api/advisory", models.ClientTaxProfile{
		ClientName:         "Alice Johnson",
		TaxEntityType:      models.EntityIndividual,
		Region:             "US - New York",
		AnnualIncome:       "95000",
		AvailableDocuments: []string{"W-2 Forms (3)", "  "},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var result models.TaxAdvisoryResult
	decode(t, rec, &result)
	assert.False(t, result.Fallback)
	assert.Equal(t, "Contribute to a 401(k).", result.FullResponseText)
	assert.Contains(t, result.PromptText, "Available Documents: W-2 Forms (3)\n")

	rec = s.do(t, http.MethodPost, "/api/advisory", strings.NewReader("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdvisoryEndpointFallback(t *testing.T) {
	s := newTestServer(t, &fakeCompletion{err: errors.New("upstream 500")})

	rec := s.postJSON(t, "/api/advisory", models.ClientTaxProfile{ClientName: "Acme", TaxEntityType: models.EntityBusiness, Region: "US - Federal"})
	require.Equal(t, http.StatusOK, rec.Code)
	var result models.TaxAdvisoryResult
	decode(t, rec, &result)
	assert.True(t, result.Fallback)
	assert.Equal(t, services.FallbackSuggestion, result.FullResponseText)
}

func TestIndividualFilingStepGates(t *testing.T) {
	s := newTestServer(t, &fakeCompletion{text: "ok"})
	complete := models.IndividualFilingRequest{
		FullName:     "Robert Chen",
		Email:        "robert@example.com",
		Region:       "US - Texas",
		IncomeType:   "employment",
		AnnualIncome: "78000",
		Documents:    []string{"W-2 Form"},
	}

	tests := []struct {
		name     string
		mutate   func(r *models.IndividualFilingRequest)
		wantCode int
		wantMsg  string
	}{
		{"complete", func(r *models.IndividualFilingRequest) {}, http.StatusOK, ""},
		{"missing region", func(r *models.IndividualFilingRequest) { r.Region = "" }, http.StatusBadRequest, "personal information"},
		{"missing email", func(r *models.IndividualFilingRequest) { r.Email = "" }, http.StatusBadRequest, "personal information"},
		{"missing income type", func(r *models.IndividualFilingRequest) { r.IncomeType = "" }, http.StatusBadRequest, "income information"},
		{"missing income", func(r *models.IndividualFilingRequest) { r.AnnualIncome = "" }, http.StatusBadRequest, "income information"},
		{"unknown income type", func(r *models.IndividualFilingRequest) { r.IncomeType = "lottery" }, http.StatusBadRequest, "income type"},
		{"invalid email", func(r *models.IndividualFilingRequest) { r.Email = "robert" }, http.StatusBadRequest, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := complete
			tt.mutate(&req)
			rec := s.postJSON(t, "/api/individual/advisory", req)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantMsg != "" {
				assert.Contains(t, rec.Body.String(), tt.wantMsg)
				return
			}
			var result models.TaxAdvisoryResult
			decode(t, rec, &result)
			assert.Contains(t, result.SummaryText, "Taxpayer: Robert Chen")
			assert.Equal(t, 0.20, result.EstimatedRate)
		})
	}
}

func TestClientEndpoints(t *testing.T) {
	s := newTestServer(t, &fakeCompletion{text: "Review quarterly estimates."})

	rec := s.do(t, http.MethodGet, "/api/clients?search=acme", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var clients []models.Client
	decode(t, rec, &clients)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme Corporation", clients[0].Name)

	rec = s.postJSON(t, "/api/clients", models.NewClientRequest{Name: "New Co", Email: "hello@newco.com", TaxType: models.EntityBusiness})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Client
	decode(t, rec, &created)
	assert.Equal(t, models.StatusNewClient, created.Status)

	rec = s.postJSON(t, "/api/clients", models.NewClientRequest{Name: "No Email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/clients/999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/clients/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.postJSON(t, "/api/clients/3/document-requests", documentRequest{Name: "Payroll Summary"})
	require.Equal(t, http.StatusOK, rec.Code)
	var acme models.Client
	decode(t, rec, &acme)
	assert.Len(t, acme.Documents, 5)

	rec = s.do(t, http.MethodGet, "/api/clients/3/advisory", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/clients/3/advisory", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result models.TaxAdvisoryResult
	decode(t, rec, &result)
	assert.True(t, strings.HasPrefix(result.SummaryText, services.BusinessReportHeader))

	rec = s.do(t, http.MethodGet, "/api/clients/3/advisory", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var latest models.TaxAdvisoryResult
	decode(t, rec, &latest)
	assert.Equal(t, result.ID, latest.ID)

	rec = s.do(t, http.MethodGet, "/api/clients/3", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &acme)
	assert.Equal(t, models.StatusDraftGenerated, acme.Status)
	require.NotNil(t, acme.LatestAdvisory)
}

func multipartUpload(t *testing.T, name, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		require.NoError(t, mw.WriteField("name", name))
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	s := newTestServer(t, &fakeCompletion{text: "ok"})

	body, ct := multipartUpload(t, "1099-INT Forms", "1099.pdf", "application/pdf", []byte("%PDF-1.4\n%test\n"))
	rec := s.do(t, http.MethodPost, "/api/clients/1/documents", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var client models.Client
	decode(t, rec, &client)
	assert.Contains(t, client.UploadedDocumentNames(), "1099-INT Forms")

	body, ct = multipartUpload(t, "", "tool.exe", "application/x-msdownload", []byte("MZ\x90\x00"))
	rec = s.do(t, http.MethodPost, "/api/clients/1/documents", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartUpload(t, "Statement", "s.pdf", "application/pdf", []byte("%PDF-1.4\n"))
	rec = s.do(t, http.MethodPost, "/api/clients/404/documents", body, ct)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/clients/1/documents", strings.NewReader("plain"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIntegrationEndpoints(t *testing.T) {
	s := newTestServer(t, &fakeCompletion{text: "ok"})

	rec := s.do(t, http.MethodGet, "/api/integrations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var catalog []models.AccountingSoftware
	decode(t, rec, &catalog)
	assert.Len(t, catalog, 5)

	rec = s.do(t, http.MethodGet, "/api/integrations/xero/connect?client_id=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var connect map[string]string
	decode(t, rec, &connect)
	authURL, err := url.Parse(connect["auth_url"])
	require.NoError(t, err)
	state := authURL.Query().Get("state")
	require.NotEmpty(t, state)

	rec = s.do(t, http.MethodGet, "/api/integrations/quickbooks/connect?client_id=2", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/integrations/freshbooks/connect?client_id=2", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/integrations/xero/connect?client_id=999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/integrations/xero/connect", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/integrations/xero/callback?code=abc&state=forged", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/integrations/xero/callback?error=access_denied", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/integrations/xero/callback?code=abc&state="+url.QueryEscape(state), nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var conn models.IntegrationConnection
	decode(t, rec, &conn)
	assert.Equal(t, int64(2), conn.ClientID)

	rec = s.do(t, http.MethodGet, "/api/clients/2/integrations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var conns []models.IntegrationConnection
	decode(t, rec, &conns)
	require.Len(t, conns, 1)
	assert.Equal(t, "xero", conns[0].SoftwareID)
}
