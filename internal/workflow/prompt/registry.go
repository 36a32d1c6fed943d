package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptQuotationGenV1   PromptID = "quotation_gen_v1"
	PromptNLQSQLGenV1      PromptID = "nlq_sqlgen_v1"
	PromptKPIAnalysisV1    PromptID = "kpi_analysis_v1"
	PromptClothingAdviceV1 PromptID = "clothing_advice_v1"
	PromptWeatherSummaryV1 PromptID = "weather_summary_v1"
	PromptLicenseSummaryV1 PromptID = "license_summary_v1"
	PromptLicenseJudgeV1   PromptID = "license_judge_v1"
)

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptQuotationGenV1:
		return "templates/quotation_gen_v1.system.txt", "templates/quotation_gen_v1.user.txt", nil
	case PromptNLQSQLGenV1:
		return "templates/nlq_sqlgen_v1.system.txt", "templates/nlq_sqlgen_v1.user.txt", nil
	case PromptKPIAnalysisV1:
		return "templates/kpi_analysis_v1.system.txt", "templates/kpi_analysis_v1.user.txt", nil
	case PromptClothingAdviceV1:
		return "templates/clothing_advice_v1.system.txt", "templates/clothing_advice_v1.user.txt", nil
	case PromptWeatherSummaryV1:
		return "templates/weather_summary_v1.system.txt", "templates/weather_summary_v1.user.txt", nil
	case PromptLicenseSummaryV1:
		return "templates/license_summary_v1.system.txt", "templates/license_summary_v1.user.txt", nil
	case PromptLicenseJudgeV1:
		return "templates/license_judge_v1.system.txt", "templates/license_judge_v1.user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
