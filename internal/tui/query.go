package tui

import (
	"strings"

	"github.com/andralbr/dataEvaluation/internal/model"
	"github.com/andralbr/dataEvaluation/internal/pipeline"
)

const licensePrefix = "lic:"

// query narrows the browsed rows. Free words match the toolbox name and a
// lic:<n> term matches the license number, both as substrings.
type query struct {
	toolbox string
	license string
}

func parseQuery(s string) query {
	var q query
	var words []string
	for _, f := range strings.Fields(s) {
		if v, ok := strings.CutPrefix(strings.ToLower(f), licensePrefix); ok {
			q.license = v
			continue
		}
		words = append(words, f)
	}
	q.toolbox = strings.Join(words, " ")
	return q
}

func (q query) empty() bool {
	return q.toolbox == "" && q.license == ""
}

func (q query) String() string {
	parts := make([]string, 0, 2)
	if q.toolbox != "" {
		parts = append(parts, q.toolbox)
	}
	if q.license != "" {
		parts = append(parts, licensePrefix+q.license)
	}
	return strings.Join(parts, " ")
}

func (q query) apply(rows []model.ReportRow) []model.ReportRow {
	return pipeline.FilterRows(rows, q.toolbox, q.license)
}
