package tutor

import (
	"fmt"
	"strings"

	"github.com/abhisek/sapprep/internal/domain"
)

const explainSystemPrompt = `You are an experienced AWS Solutions Architect coaching a candidate for the AWS Certified Solutions Architect - Professional (SAP-C02) exam. Be precise and concise. Ground every claim in documented AWS behavior.`

func buildExplainUserMessage(in ExplainInput) string {
	var b strings.Builder
	q := in.Question

	fmt.Fprintf(&b, "Exam domain: %s\n\n", in.Domain.DisplayName())
	fmt.Fprintf(&b, "Question:\n%s\n\nOptions:\n", q.Text)
	for _, o := range q.Options {
		fmt.Fprintf(&b, "%s. %s\n", o.Letter, o.Text)
	}
	fmt.Fprintf(&b, "\nCorrect answer: %s\n", q.CorrectAnswer)
	if q.IsMultiSelect() {
		fmt.Fprintf(&b, "(select %d)\n", q.SelectCount())
	}

	switch {
	case in.Answer == "":
		b.WriteString("Learner answer: none\n")
	case in.Answer == q.CorrectAnswer:
		fmt.Fprintf(&b, "Learner answer: %s (correct)\n", in.Answer)
	default:
		fmt.Fprintf(&b, "Learner answer: %s (incorrect)\n", in.Answer)
	}
	if p := in.Progress; p.Attempts > 0 {
		fmt.Fprintf(&b, "Learner history on this question: %d attempts, %d correct\n", p.Attempts, p.CorrectAttempts)
	}
	if q.Explanation != "" {
		fmt.Fprintf(&b, "\nReference explanation:\n%s\n", q.Explanation)
	}

	b.WriteString(`
Instructions:
1. Summarize the requirement that decides the question in one or two sentences.
2. Explain why the correct option(s) meet every requirement in the stem.
3. For each incorrect option give the specific reason it fails.
4. If the learner answered incorrectly, describe the misconception their choice suggests. Otherwise leave it empty.
5. List the AWS services central to the question.
Use plain text. No markdown.`)

	return b.String()
}

const planSystemPrompt = `You are an AWS certification coach building a short, prioritised study plan for a SAP-C02 candidate from their practice statistics.`

func buildPlanUserMessage(in PlanInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Readiness: %d%%\n", in.Readiness)
	fmt.Fprintf(&b, "Questions: %d total, %d attempted, %d mastered, %d need review\n\n",
		in.Summary.Total, in.Summary.Attempted, in.Summary.Mastered, in.Summary.NeedsReview)

	b.WriteString("Per domain (exam weight):\n")
	for _, d := range domain.All() {
		ds := in.Summary.PerDomain[d]
		fmt.Fprintf(&b, "- %s [%s, %d%%]: %d/%d mastered, %d need review\n",
			d.DisplayName(), d, d.WeightPercent(), ds.Mastered, ds.Total, ds.NeedsReview)
	}

	if len(in.RecentScores) > 0 {
		parts := make([]string, len(in.RecentScores))
		for i, s := range in.RecentScores {
			parts[i] = fmt.Sprintf("%d%%", s)
		}
		fmt.Fprintf(&b, "\nRecent exam scores (oldest first): %s\n", strings.Join(parts, ", "))
	}

	b.WriteString(`
Instructions:
Return up to five focus areas ordered by expected score gain. Weigh domain exam weight against the mastery gap. For each give the domain id, one sentence of reasoning, and two to four concrete AWS topics to study.`)

	return b.String()
}
