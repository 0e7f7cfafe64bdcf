package energy

import (
	"fmt"
	"regexp"
	"strings"
)

// Simulated assistant replies used when no classifier answers.

var (
	factualQuestion = regexp.MustCompile(`(?i)\b(what|who|where|when)\b`)
	processQuestion = regexp.MustCompile(`(?i)\b(why|how)\b`)
	comparison      = regexp.MustCompile(`(?i)\b(compare|difference|versus|vs)`)
)

var openers = []string{
	"I've analyzed your request: %q and found the following information:",
	"Based on your prompt, I can provide the following insights:",
	"Here's what I know about %q:",
	"I've processed your query and here's what I found:",
}

var facts = []string{
	"sustainable AI practices can reduce energy consumption by up to 40%",
	"optimized prompting techniques save approximately 23% of computational resources",
	"cloud-based AI services offer a 62% reduction in carbon footprint compared to on-premises solutions",
	"proper query formulation can decrease processing time by 35%",
	"AI system efficiency has improved by 78% in the last five years",
	"modern language models require significantly less energy per token than previous generations",
	"implementing regular maintenance cycles can extend AI hardware lifecycle by 30%",
	"distributed computing approaches can reduce peak energy demands by 55%",
}

var factors = []string{
	"reduced computational complexity",
	"optimized memory usage",
	"improved algorithm efficiency",
	"better resource allocation",
	"enhanced data preprocessing",
	"streamlined model architecture",
	"reduced redundancy in operations",
	"more efficient data handling",
}

const closing = "Is there anything specific about this you'd like me to elaborate on?"

func (e *Estimator) respond(prompt string) string {
	opener := openers[e.intN(len(openers))]
	if strings.Contains(opener, "%q") {
		opener = fmt.Sprintf(opener, excerpt(prompt, 30)+"...")
	}

	var details string
	switch {
	case factualQuestion.MatchString(prompt):
		details = "The specific information you're looking for relates to " + e.fact() +
			". This is based on the latest data available to me."
	case processQuestion.MatchString(prompt):
		details = "The process involves several key factors: " + e.factorList(3) +
			". These elements work together to create the outcome you're asking about."
	case comparison.MatchString(prompt):
		details = "The main differences include: " + e.factorList(2) +
			". However, they share some similarities such as " + e.fact() + "."
	default:
		details = "Based on available information, " + e.fact() + ". Additionally, " + e.fact() + "."
	}

	return opener + "\n\n" + details + "\n\n" + closing
}

func (e *Estimator) fact() string {
	return facts[e.intN(len(facts))]
}

func (e *Estimator) factorList(n int) string {
	e.mu.Lock()
	perm := e.rng.Perm(len(factors))
	e.mu.Unlock()

	picked := make([]string, 0, n)
	for _, i := range perm[:min(n, len(perm))] {
		picked = append(picked, factors[i])
	}
	return strings.Join(picked, ", ")
}

// excerpt returns at most n runes of s.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
