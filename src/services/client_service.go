// backend/src/services/client_service.go
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/model"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/models"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/security/validation"
)

const (
	ckClientList           = "clients_all"
	ckClientDetail         = "client_detail_%d"
	ckClientAdvisory       = "client_advisory_%d"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	defaultClientRegion = "US - Federal"
)

type clientServiceImpl struct {
	db        *sql.DB
	advisory  AdvisoryService
	cache     *cache.Cache
	maxUpload int64
}

// NewClientService creates the roster service. reportCache may be shared with
// other services; keys are namespaced.
func NewClientService(db *sql.DB, advisory AdvisoryService, reportCache *cache.Cache, maxUploadBytes int64) ClientService {
	if reportCache == nil {
		reportCache = cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	}
	return &clientServiceImpl{db: db, advisory: advisory, cache: reportCache, maxUpload: maxUploadBytes}
}

func (s *clientServiceImpl) invalidate(id int64) {
	s.cache.Delete(ckClientList)
	s.cache.Delete(fmt.Sprintf(ckClientDetail, id))
	s.cache.Delete(fmt.Sprintf(ckClientAdvisory, id))
}

func (s *clientServiceImpl) all(ctx context.Context) ([]models.Client, error) {
	if cached, found := s.cache.Get(ckClientList); found {
		return cached.([]models.Client), nil
	}
	clients, err := model.ListClients(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	s.cache.Set(ckClientList, clients, cache.DefaultExpiration)
	return clients, nil
}

// List filters the roster by a case-insensitive substring of name, email,
// tax type, region or status. An empty search returns every client.
func (s *clientServiceImpl) List(ctx context.Context, search string) ([]models.Client, error) {
	clients, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return append([]models.Client(nil), clients...), nil
	}
	filtered := []models.Client{}
	for _, c := range clients {
		if matchesSearch(c, term) {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

func matchesSearch(c models.Client, term string) bool {
	for _, field := range []string{c.Name, c.Email, string(c.TaxType), c.Region, c.Status} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func (s *clientServiceImpl) Get(ctx context.Context, id int64) (*models.Client, error) {
	key := fmt.Sprintf(ckClientDetail, id)
	if cached, found := s.cache.Get(key); found {
		c := cached.(models.Client)
		return &c, nil
	}
	c, err := model.GetClientByID(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client %d: %w", id, err)
	}
	if latest, err := s.LatestAdvisory(ctx, id); err == nil {
		c.LatestAdvisory = latest
	}
	s.cache.Set(key, *c, cache.DefaultExpiration)
	return c, nil
}

func (s *clientServiceImpl) Create(ctx context.Context, req models.NewClientRequest) (*models.Client, error) {
	client, err := validateNewClient(req)
	if err != nil {
		return nil, err
	}
	client.Status = models.StatusNewClient
	client.CreatedAt = time.Now().UTC()

	id, err := model.InsertClient(ctx, s.db, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	s.invalidate(id)
	logger.FromContext(ctx).Info("Client created", "clientID", id, "region", client.Region, "taxType", client.TaxType)
	return s.Get(ctx, id)
}

func validateNewClient(req models.NewClientRequest) (*models.Client, error) {
	name := validation.CleanField(req.Name)
	if err := validation.ValidateRequiredText(name, validation.MaxNameLength, "name"); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(req.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePhone(req.Phone); err != nil {
		return nil, err
	}
	if err := validation.CheckXSSPatterns(req.Notes, "notes", email); err != nil {
		return nil, err
	}
	notes := validation.CleanField(req.Notes)
	if err := validation.CheckXSSPatterns(notes, "notes", email); err != nil {
		return nil, err
	}
	if err := validation.ValidateStringMaxLength(notes, validation.MaxNotesLength, "notes"); err != nil {
		return nil, err
	}

	taxType := req.TaxType
	if taxType == "" {
		taxType = models.EntityIndividual
	}
	if err := validation.ValidateEntityType(taxType); err != nil {
		return nil, err
	}

	region := validation.CleanField(req.Region)
	if region == "" {
		region = defaultClientRegion
	}
	if err := validation.ValidateStringMaxLength(region, validation.DefaultMaxStringLength, "region"); err != nil {
		return nil, err
	}

	income := strings.TrimSpace(req.AnnualIncome)
	if income != "" {
		if _, err := validation.ParseIncome(income); err != nil {
			return nil, err
		}
	}

	return &models.Client{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		TaxType:      taxType,
		Region:       region,
		AnnualIncome: income,
		Notes:        notes,
	}, nil
}

func (s *clientServiceImpl) cleanDocumentName(name string) (string, error) {
	cleaned := validation.CleanField(name)
	if err := validation.ValidateRequiredText(cleaned, validation.MaxDocumentNameLength, "document name"); err != nil {
		return "", err
	}
	return cleaned, nil
}

func (s *clientServiceImpl) RequestDocument(ctx context.Context, id int64, name string) (*models.Client, error) {
	docName, err := s.cleanDocumentName(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := model.InsertPendingDocument(ctx, s.db, id, docName); err != nil {
		return nil, fmt.Errorf("failed to request document: %w", err)
	}
	s.invalidate(id)
	return s.Get(ctx, id)
}

func (s *clientServiceImpl) MarkDocumentUploaded(ctx context.Context, id int64, upload DocumentUpload) (*models.Client, error) {
	name := upload.Name
	if strings.TrimSpace(name) == "" {
		name = upload.Filename
	}
	docName, err := s.cleanDocumentName(name)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateFileSize(upload.SizeBytes, s.maxUpload); err != nil {
		return nil, err
	}
	if err := validation.ValidateClientContentType(upload.ContentType); err != nil {
		return nil, err
	}
	detected, err := validation.ValidateDocumentContent(upload.Content)
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	if err := model.MarkDocumentUploaded(ctx, s.db, id, docName, upload.SizeBytes, detected, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to record document upload: %w", err)
	}
	s.invalidate(id)
	logger.FromContext(ctx).Info("Document uploaded", "clientID", id, "document", docName, "contentType", detected, "size", upload.SizeBytes)
	return s.Get(ctx, id)
}

// GenerateAdvisory runs the composer on the client's record and attaches the
// result. Uploaded checklist items are the available documents.
func (s *clientServiceImpl) GenerateAdvisory(ctx context.Context, id int64) (*models.TaxAdvisoryResult, error) {
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result := s.advisory.Generate(ctx, models.ClientTaxProfile{
		ClientName:         client.Name,
		TaxEntityType:      client.TaxType,
		Region:             client.Region,
		AnnualIncome:       client.AnnualIncome,
		AvailableDocuments: client.UploadedDocumentNames(),
	})

	if err := model.InsertAdvisory(ctx, s.db, id, result); err != nil {
		return nil, fmt.Errorf("failed to store advisory: %w", err)
	}
	if !result.Fallback {
		if err := model.UpdateClientStatus(ctx, s.db, id, models.StatusDraftGenerated); err != nil {
			return nil, fmt.Errorf("failed to update client status: %w", err)
		}
	}
	s.invalidate(id)
	return &result, nil
}

func (s *clientServiceImpl) LatestAdvisory(ctx context.Context, id int64) (*models.TaxAdvisoryResult, error) {
	key := fmt.Sprintf(ckClientAdvisory, id)
	if cached, found := s.cache.Get(key); found {
		r := cached.(models.TaxAdvisoryResult)
		return &r, nil
	}
	r, err := model.GetLatestAdvisory(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdvisoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load advisory for client %d: %w", id, err)
	}
	s.cache.Set(key, *r, cache.DefaultExpiration)
	return r, nil
}
