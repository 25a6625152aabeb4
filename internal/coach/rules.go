package coach

import (
	"fmt"

	"github.com/abhisek/certprep/internal/readiness"
)

// RuleAdvice builds advice directly from the snapshots.
func RuleAdvice(in Input) Advice {
	r, p := in.Readiness, in.PassProbability

	if r.InsufficientData {
		return Advice{
			Headline: "Let's get started",
			Summary:  r.NextAction.Message,
			Tips:     []string{"Complete a smart drill so your progress can be measured."},
			Source:   SourceRules,
		}
	}

	advice := Advice{
		Headline: fmt.Sprintf("%s: %d%% likely to pass", r.Tier, p.Probability),
		Summary:  r.NextAction.Message,
		Source:   SourceRules,
	}
	add := func(format string, args ...any) {
		if len(advice.Tips) < MaxTips {
			advice.Tips = append(advice.Tips, fmt.Sprintf(format, args...))
		}
	}

	if r.NextAction.Kind == readiness.ActionBookExam {
		add("Book your exam while your recall is fresh.")
	}
	for _, id := range r.WeakModules {
		add("Revisit %s; it is below your average.", in.title(id))
	}
	for i, w := range p.WeakConcepts {
		if i == 2 {
			break
		}
		add("Drill %s (memory %d/100).", w.Name, w.MemoryScore)
	}
	if p.DaysSinceLastStudy != nil && *p.DaysSinceLastStudy > 2 {
		add("You have not studied for %d days. A short session today keeps recall fresh.", *p.DaysSinceLastStudy)
	}
	if p.DaysToReady != nil && *p.DaysToReady > 0 {
		add("At your current pace you could be exam ready in about %d days.", *p.DaysToReady)
	}
	if len(advice.Tips) == 0 {
		add("Keep your streak going with a quick practice session.")
	}

	return advice
}
