// backend/src/handlers/advisory_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/models"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/security/validation"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/services"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/utils"
)

const maxJSONBodyBytes = 1 << 20

// maxProfileDocuments bounds the document list accepted in one request.
const maxProfileDocuments = 100

type AdvisoryHandler struct {
	advisoryService services.AdvisoryService
}

func NewAdvisoryHandler(advisoryService services.AdvisoryService) *AdvisoryHandler {
	return &AdvisoryHandler{advisoryService: advisoryService}
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", validation.ErrValidationFailed, err)
	}
	return nil
}

func cleanDocumentList(docs []string) ([]string, error) {
	if len(docs) > maxProfileDocuments {
		return nil, fmt.Errorf("%w: at most %d documents are accepted", validation.ErrValidationFailed, maxProfileDocuments)
	}
	cleaned := []string{}
	for _, d := range docs {
		name := validation.CleanField(d)
		if name == "" {
			continue
		}
		if err := validation.ValidateStringMaxLength(name, validation.MaxDocumentNameLength, "document name"); err != nil {
			return nil, err
		}
		cleaned = append(cleaned, name)
	}
	return cleaned, nil
}

// cleanProfile sanitises a caller-supplied profile. Missing fields are
// allowed; the composer tolerates them.
func cleanProfile(p models.ClientTaxProfile) (models.ClientTaxProfile, error) {
	out := models.ClientTaxProfile{
		ClientName:    validation.CleanField(p.ClientName),
		TaxEntityType: models.EntityType(validation.CleanField(string(p.TaxEntityType))),
		Region:        validation.CleanField(p.Region),
		AnnualIncome:  strings.TrimSpace(p.AnnualIncome),
	}
	checks := []struct {
		value string
		max   int
		field string
	}{
		{out.ClientName, validation.MaxNameLength, "client name"},
		{string(out.TaxEntityType), validation.DefaultMaxStringLength, "tax entity type"},
		{out.Region, validation.DefaultMaxStringLength, "region"},
		{out.AnnualIncome, validation.MaxIncomeLength, "annual income"},
	}
	for _, c := range checks {
		if err := validation.ValidateStringMaxLength(c.value, c.max, c.field); err != nil {
			return out, err
		}
	}
	docs, err := cleanDocumentList(p.AvailableDocuments)
	if err != nil {
		return out, err
	}
	out.AvailableDocuments = docs
	return out, nil
}

// HandleGenerate composes an advisory for an ad-hoc profile. A failing
// completion service still yields 200 with the fallback text.
func (h *AdvisoryHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req models.ClientTaxProfile
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendServiceError(w, r, err, "generate advisory")
		return
	}
	profile, err := cleanProfile(req)
	if err != nil {
		sendServiceError(w, r, err, "generate advisory")
		return
	}

	result := h.advisoryService.Generate(r.Context(), profile)
	utils.WriteJSON(w, http.StatusOK, result)
}

// validateIndividualFiling applies the wizard's step gates: personal details
// before income details.
func validateIndividualFiling(req models.IndividualFilingRequest) (models.ClientTaxProfile, error) {
	name := validation.CleanField(req.FullName)
	region := validation.CleanField(req.Region)
	email := strings.TrimSpace(req.Email)

	if name == "" || email == "" || region == "" {
		return models.ClientTaxProfile{}, fmt.Errorf("%w: personal information requires full name, email and region", validation.ErrValidationFailed)
	}
	if err := validation.ValidateStringMaxLength(name, validation.MaxNameLength, "full name"); err != nil {
		return models.ClientTaxProfile{}, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return models.ClientTaxProfile{}, err
	}
	if err := validation.ValidatePhone(req.Phone); err != nil {
		return models.ClientTaxProfile{}, err
	}
	if err := validation.ValidateStringMaxLength(region, validation.DefaultMaxStringLength, "region"); err != nil {
		return models.ClientTaxProfile{}, err
	}

	incomeType := strings.TrimSpace(req.IncomeType)
	income := strings.TrimSpace(req.AnnualIncome)
	if incomeType == "" || income == "" {
		return models.ClientTaxProfile{}, fmt.Errorf("%w: income information requires income type and annual income", validation.ErrValidationFailed)
	}
	if err := validation.ValidateIncomeType(incomeType); err != nil {
		return models.ClientTaxProfile{}, err
	}
	if _, err := validation.ParseIncome(income); err != nil {
		return models.ClientTaxProfile{}, err
	}

	docs, err := cleanDocumentList(req.Documents)
	if err != nil {
		return models.ClientTaxProfile{}, err
	}
	return models.ClientTaxProfile{
		ClientName:         name,
		TaxEntityType:      models.EntityIndividual,
		Region:             region,
		AnnualIncome:       income,
		AvailableDocuments: docs,
	}, nil
}

func (h *AdvisoryHandler) HandleIndividualFiling(w http.ResponseWriter, r *http.Request) {
	var req models.IndividualFilingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendServiceError(w, r, err, "generate individual advisory")
		return
	}
	profile, err := validateIndividualFiling(req)
	if err != nil {
		sendServiceError(w, r, err, "generate individual advisory")
		return
	}
	logger.FromContext(r.Context()).Info("Individual filing advisory requested",
		"region", profile.Region, "incomeType", req.IncomeType, "documents", len(profile.AvailableDocuments))

	result := h.advisoryService.Generate(r.Context(), profile)
	utils.WriteJSON(w, http.StatusOK, result)
}
