// Package prompt renders the instructions sent to the model for extraction
// and mediation. Templates are embedded and may be overridden per deployment.
package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/invopop/jsonschema"

	"github.com/lewisedginton/parallax/internal/insights"
)

// Template names, also used as override file names in the prompt store.
const (
	ExtractionTemplate = "extraction.tmpl"
	MediationTemplate  = "mediation.tmpl"
)

const (
	extractionRequest = "Extract the insights from the conversation above as a single JSON object."
	mediationRequest  = "Analyse the message above and reply with a single JSON object."
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var defaults = template.Must(template.New("prompts").
	Option("missingkey=error").
	ParseFS(templateFS, "templates/*.tmpl"))

var schemaReflector = jsonschema.Reflector{
	Anonymous:                  true,
	DoNotReference:             true,
	ExpandedStruct:             true,
	AllowAdditionalProperties:  true,
	RequiredFromJSONSchemaTags: true,
}

var (
	extractionSchema = mustSchema(&insights.ExtractedFields{})
	mediationSchema  = mustSchema(&insights.NVCAnalysis{})
	signalShapes     = mustSignalShapes()
)

func mustSchema(v any) string {
	data, err := json.MarshalIndent(schemaReflector.Reflect(v), "", "  ")
	if err != nil {
		panic(fmt.Sprintf("prompt: generating schema for %T: %v", v, err))
	}
	return string(data)
}

// mustSignalShapes renders one "signal_type: schema" line per signal type,
// describing the signal_value payload the decoder accepts.
func mustSignalShapes() string {
	lines := make([]string, 0, len(insights.SignalTypes))
	for _, t := range insights.SignalTypes {
		value, err := insights.EmptySignalValue(t)
		if err != nil {
			panic(fmt.Sprintf("prompt: %v", err))
		}
		schema := schemaReflector.Reflect(value)
		schema.Version = ""
		data, err := json.Marshal(schema)
		if err != nil {
			panic(fmt.Sprintf("prompt: generating schema for %s: %v", t, err))
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", t, data))
	}
	return strings.Join(lines, "\n")
}

// TemplateNames lists the templates that may be overridden.
var TemplateNames = []string{ExtractionTemplate, MediationTemplate}

// DefaultTemplate returns the embedded text of the named template.
func DefaultTemplate(name string) (string, error) {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("unknown template %q", name)
	}
	return string(data), nil
}

// Prompt is a rendered instruction pair.
type Prompt struct {
	System string
	User   string
}

type extractionData struct {
	Schema       string
	MaxThemes    int
	MaxPatterns  int
	SignalTypes  string
	SignalShapes string
	Conversation string
	PriorMemory  string
}

type mediationData struct {
	Schema       string
	Sender       insights.Sender
	Conversation string
	Message      string
}

// Builder renders prompts from a fixed set of templates. It is safe for
// concurrent use.
type Builder struct {
	templates map[string]*template.Template
}

// NewBuilder returns a builder over the embedded templates.
func NewBuilder() *Builder {
	return &Builder{templates: map[string]*template.Template{
		ExtractionTemplate: defaults.Lookup(ExtractionTemplate),
		MediationTemplate:  defaults.Lookup(MediationTemplate),
	}}
}

// WithOverride returns a copy of the builder using text for the named
// template. The override is parsed and test-rendered; on error the receiver
// is returned unchanged alongside the error.
func (b *Builder) WithOverride(name, text string) (*Builder, error) {
	if _, ok := b.templates[name]; !ok {
		return b, fmt.Errorf("unknown template %q", name)
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return b, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	if err := tmpl.Execute(&bytes.Buffer{}, sampleData(name)); err != nil {
		return b, fmt.Errorf("failed to render template %s: %w", name, err)
	}

	next := &Builder{templates: make(map[string]*template.Template, len(b.templates))}
	for k, v := range b.templates {
		next.templates[k] = v
	}
	next.templates[name] = tmpl
	return next, nil
}

func sampleData(name string) any {
	if name == MediationTemplate {
		return mediationData{Schema: "{}", Sender: insights.SenderPersonA, Conversation: "[person_a]: hi", Message: "hi"}
	}
	return extractionData{Schema: "{}", MaxThemes: 1, MaxPatterns: 1, SignalTypes: "x", SignalShapes: "x", Conversation: "[person_a]: hi", PriorMemory: "{}"}
}

// BuildExtractionPrompt renders the extraction instruction for turns and,
// when prior is non-nil, the memory already held for the user.
func (b *Builder) BuildExtractionPrompt(turns []insights.ConversationTurn, prior *insights.MemoryRecord) (Prompt, error) {
	data := extractionData{
		Schema:       extractionSchema,
		MaxThemes:    insights.MaxThemes,
		MaxPatterns:  insights.MaxPatterns,
		SignalTypes:  joinSignalTypes(),
		SignalShapes: signalShapes,
		Conversation: FormatConversation(turns),
	}
	if prior != nil {
		raw, err := json.MarshalIndent(prior, "", "  ")
		if err != nil {
			return Prompt{}, fmt.Errorf("failed to encode prior memory: %w", err)
		}
		data.PriorMemory = string(raw)
	}

	system, err := b.render(ExtractionTemplate, data)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{System: system, User: extractionRequest}, nil
}

// BuildMediationPrompt renders the NVC analysis instruction for message,
// sent by sender after the given conversation.
func (b *Builder) BuildMediationPrompt(turns []insights.ConversationTurn, sender insights.Sender, message string) (Prompt, error) {
	system, err := b.render(MediationTemplate, mediationData{
		Schema:       mediationSchema,
		Sender:       sender,
		Conversation: FormatConversation(turns),
		Message:      message,
	})
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{System: system, User: mediationRequest}, nil
}

func (b *Builder) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := b.templates[name].Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// FormatConversation renders one "[sender]: content" line per turn.
func FormatConversation(turns []insights.ConversationTurn) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = t.String()
	}
	return strings.Join(lines, "\n")
}

func joinSignalTypes() string {
	names := make([]string, len(insights.SignalTypes))
	for i, t := range insights.SignalTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
