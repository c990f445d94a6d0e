package firebase

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// Provider builds token-scoped Firestore and Storage clients for a run
type Provider struct {
	config *common.Config
	logger arbor.ILogger
}

// NewProvider creates a store provider bound to the configured project
func NewProvider(config *common.Config, logger arbor.ILogger) interfaces.StoreProvider {
	return &Provider{
		config: config,
		logger: logger,
	}
}

func (p *Provider) SessionStore(authToken string) interfaces.SessionStore {
	return NewSessionStore(p.config, authToken, p.logger)
}

func (p *Provider) ObjectStore(authToken string) interfaces.ObjectStore {
	return NewObjectStore(p.config, authToken, p.logger)
}
