package assistant

import (
	"bytes"
	"fmt"
	"text/template"

	"medassist/api/internal/util"
)

// Prompt names; each can be overridden by <PROMPT_DIR>/<name>.<system|user>.txt.
const (
	promptSearchDecision = "search_decision"
	promptAnswer         = "answer"
	promptDirect         = "direct"
	promptAnalysis       = "analysis"
	promptSummary        = "summary"
)

const searchDecisionSystem = `Decide if query needs web search. If yes, reformulate for search in {{.Language}}. If no, respond 'ns'.`

const searchDecisionUser = `User Query: {{.Query}}

Respond in {{.Language}}.`

const answerSystem = `You are a knowledgeable medical assistant. Provide comprehensive, well-structured answers to medical questions in {{.Language}}. Ensure all responses are in {{.Language}} only.`

const answerUser = `
Provide a COMPREHENSIVE medical answer to the user's query in {{.Language}}.

REQUIREMENTS:
1. **Length:** Detailed explanations (8-15 lines)
2. **Structure:** Clear headings, bullet points
3. **Citations:** Use [1], [2], [3] after relevant facts
4. **Medical Focus:** Include symptoms, causes, treatments, prevention
5. **Clarity:** Explain medical terms clearly
6. **Language:** Respond ONLY in {{.Language}}

Available Sources:
{{.Context}}

User Question: {{.Query}}

Provide detailed medical answer with citations in {{.Language}}:
`

const directUser = `
As a medical assistant, provide detailed answer to: {{.Query}}

IMPORTANT: Respond ONLY in {{.Language}}.

Requirements:
- 8-15 lines of detailed explanation
- Clear structure with bullet points
- Include symptoms, causes, treatments, prevention
- Explain medical terms clearly
- Use **bold** for key terms
- Ensure entire response is in {{.Language}}
`

const analysisUser = `
As an expert medical AI assistant, analyze the following medical information and provide a comprehensive professional assessment:

{{.Context}}

Please provide a detailed medical analysis in {{.Language}} including:

1. **Patient Information Summary** (if available from the data)
2. **Primary Symptoms Analysis** (from audio/documents)
3. **Key Medical Findings** (test results, measurements, observations)
4. **Clinical Assessment** (potential diagnoses based on symptoms/findings)
5. **Recommendations** (suggested actions, follow-up care, lifestyle changes)
6. **Important Warnings** (urgent concerns, contraindications, precautions)
7. **Additional Notes** (relevant medical context or considerations)

Format your response in clear, professional medical language suitable for healthcare professionals.
Use proper medical terminology and provide evidence-based analysis.
Respond entirely in: {{.Language}}
`

const summaryUser = `
As a medical expert, analyze this medical text and provide a structured summary in {{.Language}}.

**Medical Text:** {{.Query}}

Please respond ONLY in {{.Language}} and provide a comprehensive summary including:
- **Patient Information** (if available)
- **Key Findings**
- **Test Results**
- **Medications/Treatments**
- **Recommendations**
- **Important Notes**

Format the response clearly with proper medical terminology in {{.Language}}.
Ensure the entire response is in {{.Language}}, including section headers.
`

// promptData is what every prompt template can reference.
type promptData struct {
	Language string
	Query    string
	Context  string
}

// Prompts renders the built-in prompt templates, or overrides found by the loader.
type Prompts struct {
	loader *util.PromptLoader
}

func NewPrompts(loader *util.PromptLoader) *Prompts {
	return &Prompts{loader: loader}
}

func (p *Prompts) render(name, kind, builtin string, data promptData) (string, error) {
	src := builtin
	if p != nil {
		src = p.loader.Load(name, kind, builtin)
	}
	tpl, err := template.New(name + "." + kind).Option("missingkey=error").Parse(src)
	if err != nil {
		return "", fmt.Errorf("prompt %s.%s: %w", name, kind, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("prompt %s.%s: %w", name, kind, err)
	}
	return buf.String(), nil
}
