package coach

import (
	"bytes"
	"text/template"
)

const systemPrompt = `You are a friendly study coach for a food hygiene certification course. You receive a learner's readiness report and pass-probability estimate.

Instructions:
- Base every statement on the numbers given. Do not invent scores, modules or concepts.
- Refer to modules and concepts by their names, never by ids.
- Lead with the single most useful next step.
- Keep the tone encouraging and plain. No more than five tips.`

var userTemplate = template.Must(template.New("advice").Parse(`Readiness: {{.Readiness.Overall}}/100 ({{.Readiness.Tier}})
Components: knowledge {{.Readiness.Components.Knowledge}}, skills {{.Readiness.Components.Skills}}, test readiness {{.Readiness.Components.TestReadiness}}, consistency {{.Readiness.Components.Consistency}}, experience {{.Readiness.Components.Experience}}
Suggested next action: {{.Readiness.NextAction.Message}}
{{if .WeakModules}}Weak modules:
{{range .WeakModules}}- {{.}}
{{end}}{{end}}
Pass probability: {{.PassProbability.Probability}}% (confidence {{.PassProbability.Confidence}})
Concepts mastered: {{.PassProbability.ConceptsMastered}} of {{.PassProbability.ConceptsTotal}}
Study days: {{.PassProbability.TotalStudyDays}}{{if .PassProbability.DaysSinceLastStudy}}, last studied {{.PassProbability.DaysSinceLastStudy}} days ago{{end}}
{{if .PassProbability.DaysToReady}}Estimated days to ready: {{.PassProbability.DaysToReady}}
{{end}}{{if .PassProbability.WeakConcepts}}Weak concepts (memory score out of 100):
{{range .PassProbability.WeakConcepts}}- {{.Name}}: {{.MemoryScore}}
{{end}}{{end}}`))

type promptData struct {
	Input
	WeakModules []string
}

func buildUserMessage(in Input) (string, error) {
	data := promptData{Input: in}
	for _, id := range in.Readiness.WeakModules {
		data.WeakModules = append(data.WeakModules, in.title(id))
	}

	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
