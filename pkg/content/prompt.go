package content

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompt/*.yaml
var promptFS embed.FS

type Kind string

const (
	KindSnippet  Kind = "snippet"
	KindLeetcode Kind = "leetcode"
	KindProject  Kind = "project"
)

type promptFile struct {
	SystemPrompt string `yaml:"system_prompt"`
	UserPrompt   string `yaml:"user_prompt"`
}

// Prompt is a rendered system/user message pair.
type Prompt struct {
	System string
	User   string
}

func render(name, text string, data map[string]string) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

// BuildPrompt loads the embedded template for req.Kind and renders it with
// the request's language and variables.
func BuildPrompt(req Request) (Prompt, error) {
	raw, err := promptFS.ReadFile("prompt/" + string(req.Kind) + ".yaml")
	if err != nil {
		return Prompt{}, fmt.Errorf("unknown prompt kind %q", req.Kind)
	}
	var file promptFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Prompt{}, fmt.Errorf("error parsing prompt yaml: %w", err)
	}

	data := make(map[string]string, len(req.Vars)+1)
	for k, v := range req.Vars {
		data[k] = v
	}
	data["Language"] = req.Language

	system, err := render(string(req.Kind)+".system", file.SystemPrompt, data)
	if err != nil {
		return Prompt{}, fmt.Errorf("render %s system prompt: %w", req.Kind, err)
	}
	user, err := render(string(req.Kind)+".user", file.UserPrompt, data)
	if err != nil {
		return Prompt{}, fmt.Errorf("render %s user prompt: %w", req.Kind, err)
	}
	return Prompt{System: system, User: user}, nil
}
