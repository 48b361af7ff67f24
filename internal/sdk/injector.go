package sdk

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kaya95/Autodrop-SaaS-platform/internal/assets"
)

// sdkTemplate is the client library injected into every deployed entry
// document. %s is the application identifier. The library forwards the
// caller's bearer token from localStorage to the app-scoped data endpoint.
const sdkTemplate = `
<script>
(function() {
  const API_URL = '/api/%[1]s';

  window.AutoDrop = {
    api: async (endpoint, options = {}) => {
      const token = localStorage.getItem('token');
      const res = await fetch(` + "`${API_URL}${endpoint}`" + `, {
        ...options,
        headers: {
          'Content-Type': 'application/json',
          'Authorization': token ? ` + "`Bearer ${token}`" + ` : '',
          ...options.headers
        }
      });
      return res.json();
    },

    db: {
      list: (collection) => window.AutoDrop.api('/' + collection),
      get: (collection, id) => window.AutoDrop.api('/' + collection + '/' + id),
      create: (collection, data) => window.AutoDrop.api('/' + collection, {
        method: 'POST',
        body: JSON.stringify(data)
      })
    }
  };

  console.log('AutoDrop SDK connected. App ID: %[1]s');
})();
</script>
`

// Injector rewrites deployed entry documents to embed the client SDK
type Injector struct {
	logger *logrus.Logger
}

// NewInjector creates a new SDK injector
func NewInjector(logger *logrus.Logger) *Injector {
	return &Injector{logger: logger}
}

// Inject embeds the app-scoped client SDK into the entry document under
// frontendDir, immediately before the closing head tag. Returns false when
// no entry document exists; that is a no-op, not a failure, and the
// deployment proceeds.
func (i *Injector) Inject(frontendDir, appID string) (bool, error) {
	entryPath, found := assets.FindEntry(frontendDir)
	if !found {
		i.logger.WithField("dir", frontendDir).Warn("No entry document to inject SDK into")
		return false, nil
	}

	html, err := os.ReadFile(entryPath)
	if err != nil {
		return false, fmt.Errorf("failed to read entry document: %w", err)
	}

	script := fmt.Sprintf(sdkTemplate, appID)
	injected := strings.Replace(string(html), "</head>", script+"\n</head>", 1)

	if err := os.WriteFile(entryPath, []byte(injected), 0644); err != nil {
		return false, fmt.Errorf("failed to write entry document: %w", err)
	}

	i.logger.WithFields(logrus.Fields{
		"app_id": appID,
		"entry":  entryPath,
	}).Info("SDK injected")

	return true, nil
}
