package suiteindex

import (
	"regexp"
	"sort"
	"strings"
	"text/template"
)

// DefaultSuitePattern selects the sources under the project's tests directory. The first
// capture group is the path that becomes the namespace.
const DefaultSuitePattern = `.*?devtools_sample/tests/(.*)\.js`

var defaultSuiteRegex = regexp.MustCompile(DefaultSuitePattern)

// DefaultPattern returns DefaultSuitePattern compiled.
func DefaultPattern() *regexp.Regexp {
	return defaultSuiteRegex
}

var namespaceReplacer = strings.NewReplacer("_", "-", "/", ".")

// PathToNamespace converts a source path to the namespace identifier the test runner
// understands: underscores become hyphens and path separators become dots.
func PathToNamespace(path string) string {
	return namespaceReplacer.Replace(path)
}

// BuildIndex returns the namespace of every declared path that matches pattern, in catalog
// order. Duplicates are kept. A nil catalog yields an empty result.
func BuildIndex(catalog DependencyCatalog, pattern *regexp.Regexp) []string {
	index := []string{}
	if catalog == nil {
		return index
	}
	for _, item := range catalog.ListDeclaredPaths() {
		m := pattern.FindStringSubmatch(item)
		if len(m) < 2 {
			continue
		}
		index = append(index, PathToNamespace(m[1]))
	}
	return index
}

// Namespace values come from build output, so they are written as-is.
var taskListTemplate = template.Must(template.New("tasks").Parse(
	"<div class='tasks'>\n" +
		"<span class='tasks-title'>AVAILABLE TESTS:</span>\n" +
		"<ol class='suite-list'>\n" +
		`{{range .Tasks}}<li><a href="{{$.BaseURL}}?ns={{.}}">{{.}}</a></li>` + "\n{{end}}" +
		"</ol>\n" +
		"</div>"))

// RenderTaskList renders tasks, in the given order, as an ordered list of links to
// baseURL?ns=<namespace>.
func RenderTaskList(baseURL string, tasks []string) string {
	var b strings.Builder
	data := struct {
		BaseURL string
		Tasks   []string
	}{baseURL, tasks}
	// executing a parsed template into a strings.Builder with this data cannot fail
	_ = taskListTemplate.Execute(&b, data)
	return b.String()
}

// GenerateTestsPage discovers the suites in catalog with DefaultSuitePattern and renders
// them sorted.
func GenerateTestsPage(catalog DependencyCatalog, baseURL string) string {
	return generateTestsPage(catalog, defaultSuiteRegex, baseURL)
}

func generateTestsPage(catalog DependencyCatalog, pattern *regexp.Regexp, baseURL string) string {
	tasks := BuildIndex(catalog, pattern)
	sort.Strings(tasks)
	return RenderTaskList(baseURL, tasks)
}
