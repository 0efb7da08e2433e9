package classifier

import (
	"path/filepath"
	"strings"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// ruleConfidence is reported for rule-based recommendations.
const ruleConfidence = 0.7

type extensionRule struct {
	category   string
	extensions []string
}

type keywordRule struct {
	category string
	keywords []string
}

var extensionRules = []extensionRule{
	{"Documents", []string{".pdf", ".doc", ".docx", ".txt", ".md", ".odt", ".rtf"}},
	{"Presentations", []string{".ppt", ".pptx", ".odp", ".key"}},
	{"Spreadsheets", []string{".xls", ".xlsx", ".csv", ".ods"}},
	{"Images", []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}},
}

var keywordRules = []keywordRule{
	{"Meetings", []string{"meeting", "minutes", "agenda"}},
	{"Projects", []string{"project", "plan", "task"}},
}

const fallbackCategory = "Miscellaneous"

// recommendByRules categorises a file by extension, then by keywords in
// its content. An existing candidate folder with the category's name is
// preferred over the bare category.
func recommendByRules(fileName, content string, candidates []string) *domain.Recommendation {
	category := categorise(fileName, content)
	return &domain.Recommendation{
		Recommended: matchCandidate(category, candidates),
		Confidence:  ruleConfidence,
		Reasoning:   "Rule-based categorisation by file type and content keywords",
	}
}

func categorise(fileName, content string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, rule := range extensionRules {
		for _, e := range rule.extensions {
			if ext == e {
				return rule.category
			}
		}
	}

	text := strings.ToLower(fileName + " " + content)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category
			}
		}
	}
	return fallbackCategory
}

// matchCandidate returns the shallowest candidate whose last element
// equals category, ignoring case, or category itself.
func matchCandidate(category string, candidates []string) string {
	best := ""
	for _, c := range candidates {
		if !strings.EqualFold(c[strings.LastIndex(c, "/")+1:], category) {
			continue
		}
		if best == "" || strings.Count(c, "/") < strings.Count(best, "/") {
			best = c
		}
	}
	if best == "" {
		return category
	}
	return best
}
