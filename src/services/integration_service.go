// backend/src/services/integration_service.go
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/config"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/model"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/models"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/security"
)

type softwareDefinition struct {
	models.AccountingSoftware
	endpoint oauth2.Endpoint
	scopes   []string
}

// Tally has no hosted OAuth flow, so it never becomes available.
var accountingSoftware = []softwareDefinition{
	{
		AccountingSoftware: models.AccountingSoftware{
			ID:          "quickbooks",
			Name:        "QuickBooks",
			Icon:        "https://cdn.iconscout.com/icon/free/png-256/free-quickbooks-3384849-2822934.png",
			Description: "Import your financial data directly from QuickBooks for more accurate tax planning.",
		},
		endpoint: oauth2.Endpoint{
			AuthURL:  "https://appcenter.intuit.com/connect/oauth2",
			TokenURL: "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer",
		},
		scopes: []string{"com.intuit.quickbooks.accounting"},
	},
	{
		AccountingSoftware: models.AccountingSoftware{
			ID:          "myob",
			Name:        "MYOB",
			Icon:        "https://media.licdn.com/dms/image/D560BAQFPJlOkyrj3WA/company-logo_200_200/0/1688685137838/myob_official_logo",
			Description: "Sync data from MYOB for streamlined tax preparation and financial insights.",
		},
		endpoint: oauth2.Endpoint{
			AuthURL:  "https://secure.myob.com/oauth2/account/authorize",
			TokenURL: "https://secure.myob.com/oauth2/v1/authorize",
		},
		scopes: []string{"CompanyFile"},
	},
	{
		AccountingSoftware: models.AccountingSoftware{
			ID:          "tally",
			Name:        "Tally",
			Icon:        "https://play-lh.googleusercontent.com/DTzWtkxfnKwFO3ruybY1SKjJQnLYeuK3KmQmwV5OQ3dULr5iXxeEtzBLceultrKTIUTr",
			Description: "Connect your Tally data to automatically import transactions and reports.",
		},
	},
	{
		AccountingSoftware: models.AccountingSoftware{
			ID:          "xero",
			Name:        "Xero",
			Icon:        "https://cdn.worldvectorlogo.com/logos/xero-1.svg",
			Description: "Integrate with Xero to import your financial data for comprehensive tax analysis.",
		},
		endpoint: oauth2.Endpoint{
			AuthURL:  "https://login.xero.com/identity/connect/authorize",
			TokenURL: "https://identity.xero.com/connect/token",
		},
		scopes: []string{"offline_access", "accounting.transactions.read", "accounting.reports.read"},
	},
	{
		AccountingSoftware: models.AccountingSoftware{
			ID:          "sage",
			Name:        "Sage",
			Icon:        "https://cdn.worldvectorlogo.com/logos/sage-2.svg",
			Description: "Connect with Sage to streamline your financial data import for tax preparation.",
		},
		endpoint: oauth2.Endpoint{
			AuthURL:  "https://www.sageone.com/oauth2/auth/central?filter=apiv3.1",
			TokenURL: "https://oauth.accounting.sage.com/token",
		},
		scopes: []string{"full_access"},
	},
}

// IntegrationOptions configures the integration service. Endpoints overrides
// the built-in OAuth endpoints per software ID.
type IntegrationOptions struct {
	Credentials     map[string]config.OAuthCredentials
	RedirectBaseURL string
	Endpoints       map[string]oauth2.Endpoint
}

type integrationServiceImpl struct {
	db      *sql.DB
	signer  *security.StateSigner
	configs map[string]*oauth2.Config
	catalog []models.AccountingSoftware
}

// NewIntegrationService builds OAuth configs for every software that has
// credentials and a hosted OAuth endpoint.
func NewIntegrationService(db *sql.DB, signer *security.StateSigner, opts IntegrationOptions) IntegrationService {
	s := &integrationServiceImpl{
		db:      db,
		signer:  signer,
		configs: make(map[string]*oauth2.Config),
	}
	for _, def := range accountingSoftware {
		entry := def.AccountingSoftware
		endpoint := def.endpoint
		if override, ok := opts.Endpoints[def.ID]; ok {
			endpoint = override
		}
		creds, hasCreds := opts.Credentials[def.ID]
		if hasCreds && creds.ClientID != "" && endpoint.AuthURL != "" {
			s.configs[def.ID] = &oauth2.Config{
				ClientID:     creds.ClientID,
				ClientSecret: creds.ClientSecret,
				Endpoint:     endpoint,
				RedirectURL:  fmt.Sprintf("%s/%s/callback", opts.RedirectBaseURL, def.ID),
				Scopes:       def.scopes,
			}
			entry.IsAvailable = true
		}
		s.catalog = append(s.catalog, entry)
	}
	return s
}

func (s *integrationServiceImpl) Catalog() []models.AccountingSoftware {
	return append([]models.AccountingSoftware(nil), s.catalog...)
}

func (s *integrationServiceImpl) lookup(softwareID string) (*oauth2.Config, error) {
	known := false
	for _, entry := range s.catalog {
		if entry.ID == softwareID {
			known = true
			break
		}
	}
	if !known {
		return nil, ErrIntegrationNotFound
	}
	cfg, ok := s.configs[softwareID]
	if !ok {
		return nil, ErrIntegrationUnavailable
	}
	return cfg, nil
}

// AuthURL returns the provider consent URL for a client of the firm.
func (s *integrationServiceImpl) AuthURL(softwareID string, clientID int64) (string, error) {
	cfg, err := s.lookup(softwareID)
	if err != nil {
		return "", err
	}
	state, err := s.signer.Issue(softwareID, clientID)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Complete verifies the state, exchanges the code and records the connection.
func (s *integrationServiceImpl) Complete(ctx context.Context, softwareID, code, state string) (*models.IntegrationConnection, error) {
	cfg, err := s.lookup(softwareID)
	if err != nil {
		return nil, err
	}
	clientID, err := s.signer.Verify(state, softwareID)
	if err != nil {
		return nil, err
	}
	if _, err := model.GetClientByID(ctx, s.db, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to load client %d: %w", clientID, err)
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code with %s: %w", softwareID, err)
	}

	conn := &models.IntegrationConnection{
		SoftwareID:  softwareID,
		ClientID:    clientID,
		ConnectedAt: time.Now().UTC(),
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		conn.ExpiresAt = &expiry
	}
	id, err := model.InsertIntegrationConnection(ctx, s.db, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to record integration connection: %w", err)
	}
	conn.ID = id

	logger.FromContext(ctx).Info("Accounting software connected", "software", softwareID, "clientID", clientID)
	return conn, nil
}

func (s *integrationServiceImpl) Connections(ctx context.Context, clientID int64) ([]models.IntegrationConnection, error) {
	if _, err := model.GetClientByID(ctx, s.db, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to load client %d: %w", clientID, err)
	}
	conns, err := model.ListIntegrationConnections(ctx, s.db, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list integration connections: %w", err)
	}
	return conns, nil
}
