package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maestriajurisp/leads-api/config"
	"github.com/maestriajurisp/leads-api/internal/ebook"
	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/internal/repository"
	"github.com/maestriajurisp/leads-api/internal/services"
	"github.com/maestriajurisp/leads-api/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Create(context.Context, *models.Lead) error {
	return errors.New("database is down")
}

func handlerConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			BaseURL:                  "https://maestriajurisp.com.br",
			ContactConfirmationPath:  "/obrigado",
			SubmissionTimeoutSeconds: 5,
		},
		Forms: config.FormsConfig{
			EbookPhone:         config.PhonePolicy{CountryCode: "auto"},
			ContactPhone:       config.PhonePolicy{Required: true},
			DefaultCountryCode: "55",
		},
	}
}

func newTestRouter(store services.LeadStore) (*gin.Engine, *repository.LeadRepository) {
	cfg := handlerConfig()
	repo := repository.NewLeadRepository(repository.NewInMemoryLeadDataSource())
	if store == nil {
		store = repo
	}

	ebookSvc := ebook.NewService(ebook.Options{
		Title:        "IA para Advogados",
		BaseURL:      cfg.Server.BaseURL,
		PublicURL:    "/ebook.pdf",
		PDFJSVersion: "4.8.69",
		PreviewPages: 3,
		URLTTL:       time.Minute,
	}, jwt.NewDownloadTokenManager("secret", "leads-api", 60), repo, nil)
	leadSvc := services.NewLeadService(cfg, store, nil, nil, ebookSvc)

	leads := NewLeadHandler(leadSvc)
	books := NewEbookHandler(ebookSvc)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.POST("/leads/ebook", leads.SubmitEbook)
	v1.POST("/leads/contact", leads.SubmitContact)
	v1.GET("/leads/options", leads.GetOptions)
	v1.POST("/leads/:form/validate", leads.ValidateField)
	v1.GET("/ebook/preview", books.GetPreview)
	v1.GET("/ebook/download", books.Download)
	return router, repo
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) models.SubmissionResult {
	t.Helper()
	var result models.SubmissionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestLeadHandler_SubmitEbook_SuccessAndDownload(t *testing.T) {
	router, _ := newTestRouter(nil)

	w := postJSON(router, "/api/v1/leads/ebook",
		`{"name":"Ana Silva","email":"ana@example.com","phone":"11987654321","areaOfLaw":"Civil"}`)

	require.Equal(t, http.StatusOK, w.Code)
	result := decodeResult(t, w)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "Ana Silva")
	require.NotEmpty(t, result.DownloadURL)

	link, err := url.Parse(result.DownloadURL)
	require.NoError(t, err)

	dl := httptest.NewRecorder()
	router.ServeHTTP(dl, httptest.NewRequest(http.MethodGet, link.RequestURI(), http.NoBody))
	assert.Equal(t, http.StatusFound, dl.Code)
	assert.Equal(t, "/ebook.pdf", dl.Header().Get("Location"))
}

func TestLeadHandler_SubmitContact_FormEncoded(t *testing.T) {
	router, _ := newTestRouter(nil)

	form := url.Values{}
	form.Set("name", "Ana Silva")
	form.Set("email", "ana@example.com")
	form.Set("phone", "(11) 98765-4321")
	form.Set("areaOfLaw", "Trabalhista")
	form.Set("howHeard", "Google")
	form.Set("numLawyers", "Apenas eu")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	result := decodeResult(t, w)
	assert.True(t, result.Success)
	assert.Equal(t, "/obrigado", result.RedirectURL)
}

func TestLeadHandler_ValidationFailureIs400(t *testing.T) {
	router, _ := newTestRouter(nil)

	w := postJSON(router, "/api/v1/leads/ebook",
		`{"name":"Ana Silva","email":"ana@example.com","phone":"","areaOfLaw":"NotARealArea"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	result := decodeResult(t, w)
	assert.False(t, result.Success)
	assert.Equal(t, models.KindValidationFailed, result.Kind)
	require.Len(t, result.Issues, 1)
	assert.True(t, strings.HasPrefix(result.Issues[0], "areaOfLaw: "))
	assert.Equal(t, "NotARealArea", result.Fields["areaOfLaw"])
}

func TestLeadHandler_SideEffectFailureIs503(t *testing.T) {
	router, _ := newTestRouter(failingStore{})

	w := postJSON(router, "/api/v1/leads/contact",
		`{"name":"Ana Silva","email":"ana@example.com","phone":"11987654321","areaOfLaw":"Civil","howHeard":"Google","numLawyers":"2 a 5"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	result := decodeResult(t, w)
	assert.False(t, result.Success)
	assert.Equal(t, models.KindSideEffectFailed, result.Kind)
	assert.Equal(t, "Ana Silva", result.Fields["name"])
}

func TestLeadHandler_MalformedBody(t *testing.T) {
	router, _ := newTestRouter(nil)

	for _, body := range []string{`{"name":`, `{"name": 42}`, `[]`} {
		w := postJSON(router, "/api/v1/leads/ebook", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"Invalid request"}`, w.Body.String(), body)
	}
}

func TestLeadHandler_GetOptions(t *testing.T) {
	router, _ := newTestRouter(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/leads/options", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	var opts models.LeadOptionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	assert.Equal(t, models.AreasOfLaw, opts.AreasOfLaw)
	assert.True(t, opts.Phone[models.FormEbook].International)
	assert.True(t, opts.Phone[models.FormContact].Required)
}

func TestLeadHandler_ValidateField(t *testing.T) {
	router, _ := newTestRouter(nil)

	w := postJSON(router, "/api/v1/leads/contact/validate", `{"field":"name","value":"A"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":false,"error":{"field":"name","kind":"too_short","message":"O nome deve ter pelo menos 2 caracteres."}}`, w.Body.String())

	w = postJSON(router, "/api/v1/leads/contact/validate", `{"field":"howHeard","value":"Google"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true}`, w.Body.String())

	w = postJSON(router, "/api/v1/leads/ebook/validate", `{"field":"howHeard","value":"Google"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "/api/v1/leads/newsletter/validate", `{"field":"name","value":"Ana"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEbookHandler_GetPreview(t *testing.T) {
	router, _ := newTestRouter(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ebook/preview", http.NoBody))

	require.Equal(t, http.StatusOK, w.Code)
	var preview models.EbookPreview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &preview))
	assert.Equal(t, 3, preview.PreviewPages)
	assert.Equal(t, "/ebook.pdf", preview.FileURL)
	assert.Contains(t, preview.WorkerURL, "pdf.worker.min.mjs")
}

func TestEbookHandler_DownloadRejectsBadToken(t *testing.T) {
	router, _ := newTestRouter(nil)

	for _, path := range []string{"/api/v1/ebook/download", "/api/v1/ebook/download?token=forged"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}
