package advisor

import (
	"fmt"
	"strings"
)

const treatmentSystemPrompt = "You are a plant disease expert helping farmers, " +
	"gardeners and agricultural professionals. Answer using only plain text with " +
	"'#'/'##' headings, '**bold**', '*italic*' and '- ' bullet lines."

// treatmentPrompt mirrors the structured recommendation request the upload
// page fires after a diagnosis.
func treatmentPrompt(disease string) string {
	return fmt.Sprintf(`Provide treatment recommendations for plants affected by %s.

Follow this structure in your response:
1. Brief description of the disease
2. Symptoms
3. Treatment recommendations (organic and chemical options)
4. Prevention tips

Keep your response informative but concise (less than 500 words).`, disease)
}

// assistantSystemPrompt is the chat-panel persona. When the session carries a
// diagnosed disease, the prompt anchors answers to it.
func assistantSystemPrompt(diseaseContext string) string {
	var b strings.Builder
	b.WriteString("You are PlantCare AI, a helpful agriculture assistant that specializes in ")
	b.WriteString("plant disease diagnosis and treatment.\n\n")
	b.WriteString("When responding:\n")
	b.WriteString("- Provide accurate, actionable advice for plant care\n")
	b.WriteString("- Be concise but thorough in your explanations\n")
	b.WriteString("- Remember that prevention is as important as treatment\n")
	b.WriteString("- Consider both organic and conventional treatment options\n")
	b.WriteString("\nFormat answers with '#'/'##' headings, '**bold**', '*italic*' and '- ' bullets only.")

	if diseaseContext != "" {
		b.WriteString("\n\nThe user's plant was diagnosed with: ")
		b.WriteString(strings.ReplaceAll(diseaseContext, "_", " "))
		b.WriteString(". Prefer answers relevant to this diagnosis.")
	}
	return b.String()
}
