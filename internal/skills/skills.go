// Package skills tags postings with a fixed skill taxonomy using keyword
// rules. It complements LLM extraction with a deterministic signal that the
// snapshot report can aggregate across providers.
package skills

import (
	"regexp"
	"sort"
	"strings"
)

// skillKeywords maps a canonical skill tag to the keywords that imply it.
var skillKeywords = map[string][]string{
	"python":     {"python"},
	"go":         {"golang", "go"},
	"sql":        {"sql", "postgres", "postgresql", "mysql", "sqlite", "bigquery", "snowflake", "redshift"},
	"pytorch":    {"pytorch"},
	"tensorflow": {"tensorflow", "tf"},
	"sklearn":    {"scikit-learn", "sklearn"},
	"xgboost":    {"xgboost"},
	"spark":      {"spark", "pyspark"},
	"airflow":    {"airflow"},
	"dbt":        {"dbt"},
	"kafka":      {"kafka"},
	"aws":        {"aws", "s3", "ec2", "lambda", "sagemaker"},
	"gcp":        {"gcp", "vertex", "bigquery"},
	"azure":      {"azure"},
	"docker":     {"docker"},
	"kubernetes": {"kubernetes", "k8s"},
	"fastapi":    {"fastapi"},
	"mlops":      {"mlops", "ml flow", "mlflow", "kubeflow"},
	"llm":        {"llm", "large language model", "gpt", "transformer"},
	"nlp":        {"nlp", "natural language processing"},
}

var keywordPatterns = compilePatterns()

func compilePatterns() map[string][]*regexp.Regexp {
	pats := make(map[string][]*regexp.Regexp, len(skillKeywords))
	for skill, kws := range skillKeywords {
		for _, kw := range kws {
			// Keyword boundaries are non-alphanumeric so "go" does not match
			// inside "category" but does match "Go/Python".
			p := regexp.MustCompile(`(^|[^a-z0-9])` + regexp.QuoteMeta(kw) + `([^a-z0-9]|$)`)
			pats[skill] = append(pats[skill], p)
		}
	}
	return pats
}

var dashes = strings.NewReplacer("–", "-", "—", "-")

// Extract returns the sorted set of skill tags whose keywords appear in text.
func Extract(text string) []string {
	t := dashes.Replace(strings.ToLower(text))

	var found []string
	for skill, pats := range keywordPatterns {
		for _, p := range pats {
			if p.MatchString(t) {
				found = append(found, skill)
				break
			}
		}
	}
	sort.Strings(found)
	return found
}
