package roadmap

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

const promptTemplateEnv = "ROADMAP_PROMPT_YAML"

//go:embed prompt.yaml
var promptFS embed.FS

// used when the YAML is missing or invalid
const fallbackSystem = "You are a curriculum planner. Answer with one JSON object and nothing else. " +
	"Every day value is a string or an array of strings, never an object."

const fallbackUser = `{
    "{{.SubjectName}}": {
        "Day 1": {"Topic": "_____", "Description": "_____", "Resources": "_____", "Tasks": "_____"},
        "Day 2": {"Topic": "_____", "Description": "_____", "Resources": "_____", "Tasks": "_____"},
        ...
    }
}

Answer in exactly this JSON format for {{.SubjectName}} over {{.Duration}} (in days or months).`

// Prompt is the instruction sent to the generation service.
type Prompt struct {
	System string
	User   string
}

type promptInput struct {
	SubjectName string
	Duration    string
}

type yamlPromptSpec struct {
	Name    string `yaml:"name"`
	Version int    `yaml:"version"`
	System  string `yaml:"system"`
	User    string `yaml:"user"`
}

// PromptTemplate renders prompts from a parsed template pair.
type PromptTemplate struct {
	Name    string
	Version int
	system  *template.Template
	user    *template.Template
}

func ParsePromptTemplate(data []byte) (*PromptTemplate, error) {
	var spec yamlPromptSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("prompt yaml: %w", err)
	}
	if strings.TrimSpace(spec.Name) == "" {
		return nil, errors.New("prompt yaml: name is required")
	}
	if spec.Version <= 0 {
		return nil, fmt.Errorf("prompt yaml: invalid version for %s", spec.Name)
	}
	if !strings.Contains(spec.User, "{{.SubjectName}}") || !strings.Contains(spec.User, "{{.Duration}}") {
		return nil, fmt.Errorf("prompt yaml: %s user template must reference .SubjectName and .Duration", spec.Name)
	}
	return compilePrompt(spec)
}

func compilePrompt(spec yamlPromptSpec) (*PromptTemplate, error) {
	sysT, err := template.New("system").Option("missingkey=zero").Parse(spec.System)
	if err != nil {
		return nil, fmt.Errorf("%s system template parse: %w", spec.Name, err)
	}
	userT, err := template.New("user").Option("missingkey=zero").Parse(spec.User)
	if err != nil {
		return nil, fmt.Errorf("%s user template parse: %w", spec.Name, err)
	}
	return &PromptTemplate{Name: spec.Name, Version: spec.Version, system: sysT, user: userT}, nil
}

// Build is deterministic: the same subject and duration always produce the same prompt.
func (t *PromptTemplate) Build(subjectName, duration string) Prompt {
	in := promptInput{SubjectName: subjectName, Duration: duration}
	return Prompt{
		System: render(t.system, in),
		User:   render(t.user, in),
	}
}

func render(t *template.Template, in promptInput) string {
	var b bytes.Buffer
	_ = t.Execute(&b, in)
	return strings.TrimSpace(b.String())
}

var (
	promptOnce    sync.Once
	promptCurrent *PromptTemplate
)

// LoadPromptTemplate resolves the active template once: the file named by
// ROADMAP_PROMPT_YAML, else the embedded prompt.yaml, else the compiled-in fallback.
func LoadPromptTemplate(log *logger.Logger) *PromptTemplate {
	promptOnce.Do(func() {
		t, err := loadPromptTemplate()
		if err != nil {
			if log != nil {
				log.Warn("roadmap: prompt template load failed; using fallback", "error", err)
			}
			t = fallbackPromptTemplate()
		}
		promptCurrent = t
		if log != nil {
			log.Info("roadmap: prompt template loaded", "name", t.Name, "version", t.Version)
		}
	})
	return promptCurrent
}

// BuildPrompt renders the active template.
func BuildPrompt(subjectName, duration string) Prompt {
	return LoadPromptTemplate(nil).Build(subjectName, duration)
}

func loadPromptTemplate() (*PromptTemplate, error) {
	data, err := readPromptSpec()
	if err != nil {
		return nil, err
	}
	return ParsePromptTemplate(data)
}

func readPromptSpec() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(promptTemplateEnv)); path != "" {
		return os.ReadFile(path)
	}
	return promptFS.ReadFile("prompt.yaml")
}

func fallbackPromptTemplate() *PromptTemplate {
	t, err := compilePrompt(yamlPromptSpec{Name: "roadmap_generate_fallback", Version: 1, System: fallbackSystem, User: fallbackUser})
	if err != nil {
		panic(err)
	}
	return t
}
