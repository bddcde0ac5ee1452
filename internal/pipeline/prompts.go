package pipeline

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompt keys in the PROMPTS tab.
const (
	PromptKeyDiscovery = "PROMPT_A"
	PromptKeyOutreach  = "PROMPT_B"
)

//go:embed prompts.yaml
var promptsYAML []byte

type promptTemplates struct {
	DiscoveryTargeted string `yaml:"discovery_targeted"`
	DiscoveryGeneric  string `yaml:"discovery_generic"`
	IcebreakerSystem  string `yaml:"icebreaker_system"`
}

var templates = mustLoadTemplates()

func mustLoadTemplates() promptTemplates {
	var t promptTemplates
	if err := yaml.Unmarshal(promptsYAML, &t); err != nil {
		panic("pipeline: bad embedded prompts: " + err.Error())
	}
	return t
}

func kvDefault(kv map[string]string, key, fallback string) string {
	if v := kv[key]; v != "" {
		return v
	}
	return fallback
}

// DefaultDiscoveryPrompt builds the built-in search-directive prompt from the
// CONFIG snapshot. With both a niche and a city configured it asks for that
// exact phrase; otherwise it asks the model to pick a business and province
// within the configured country.
func DefaultDiscoveryPrompt(kv map[string]string) string {
	niche := kv["niche"]
	city := kv["city"]
	if niche != "" && city != "" {
		return strings.NewReplacer(
			"{{NICHE}}", niche,
			"{{CITY}}", city,
		).Replace(templates.DiscoveryTargeted)
	}

	country := kvDefault(kv, "country", "Argentina")
	regionSuffix := ""
	if region := kv["region"]; region != "" {
		regionSuffix = " (" + region + ")"
	}
	return strings.NewReplacer(
		"{{COUNTRY}}", country,
		"{{REGION_SUFFIX}}", regionSuffix,
	).Replace(templates.DiscoveryGeneric)
}

// DefaultOutreachPrompt builds the built-in icebreaker system prompt with the
// sender identity fields from the CONFIG snapshot.
func DefaultOutreachPrompt(kv map[string]string) string {
	return strings.NewReplacer(
		"{{COMPANY_NAME}}", kvDefault(kv, "companyName", "Divisual Project"),
		"{{COMPANY_LINK}}", kvDefault(kv, "companyLink", "#"),
		"{{SENDER_NAME}}", kvDefault(kv, "senderName", "Diego Da Silva"),
		"{{SENDER_ROLE}}", kvDefault(kv, "senderRole", "CEO"),
		"{{CTA_EMAIL}}", kvDefault(kv, "senderEmail", "hola@tuempresa.com"),
		"{{SALUDO}}", kvDefault(kv, "saludo", "Un saludo"),
	).Replace(templates.IcebreakerSystem)
}
