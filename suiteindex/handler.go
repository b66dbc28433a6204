package suiteindex

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/devtools-sample/browser-harness/logging"
)

const pageHeader = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Available tests</title></head>
<body>
`

const pageFooter = `
</body>
</html>
`

// Handler serves a page listing the suites currently declared by the catalog that load
// returns. The catalog is loaded again for every request. If pattern is nil,
// DefaultSuitePattern is used.
func Handler(load CatalogLoader, runnerURL string, pattern *regexp.Regexp, logger logging.Logger) http.Handler {
	if pattern == nil {
		pattern = defaultSuiteRegex
	}
	if logger == nil {
		logger = logging.NullLogger()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		catalog, err := load()
		if err != nil {
			logger.Printf("Suite index unavailable, serving an empty list: %s", err)
			catalog = nil
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if req.Method == http.MethodHead {
			return
		}
		fmt.Fprint(w, pageHeader)
		fmt.Fprint(w, generateTestsPage(catalog, pattern, runnerURL))
		fmt.Fprint(w, pageFooter)
	})
}
