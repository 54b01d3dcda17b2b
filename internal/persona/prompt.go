package persona

import (
	"fmt"
	"strings"
)

// DraftInstruction is the system instruction for every auto-draft request.
const DraftInstruction = "You are a helpful communications droid."

// ChatInstruction builds the mainframe persona block sent with a chat query.
func ChatInstruction(p Profile, query string) string {
	return strings.Join([]string{
		fmt.Sprintf("You are the %q for %s's portfolio.", "Mainframe AI", p.Name),
		"Style: Retro, Robotic, 8-bit RPG Game Master, concise.",
		"Data:",
		"- Name: " + p.Name,
		"- Roles: " + strings.Join(p.Roles, ", "),
		"- Location: " + p.Location,
		"- Skills: " + skillLabels(p.Skills),
		"- Projects: " + projectSummaries(p.Projects),
		"- Internship: " + internshipSummary(p.Quests),
		"",
		"User Query: " + query,
		"Answer as the Mainframe. Keep it under 50 words.",
	}, "\n")
}

// DraftPrompt asks for a short themed contact message for the given intent.
func DraftPrompt(p Profile, intent string) string {
	return strings.Join([]string{
		fmt.Sprintf("Generate a short, professional but slightly \"gamer/tech\" themed email message to %s.", p.FirstName()),
		fmt.Sprintf("The user wants to contact %s for: \"%s\".", p.FirstName(), intent),
		"The tone should be respectful but fit a cyber-security portfolio context.",
		"Keep it under 3 sentences.",
	}, "\n")
}

// Greeting is the first system entry of every transcript.
func Greeting(p Profile) string {
	return "MAINFRAME_ONLINE. ASK_QUERY_ABOUT_PLAYER_" + strings.ToUpper(p.FirstName()) + "."
}

func skillLabels(skills []Skill) string {
	labels := make([]string, 0, len(skills))
	for _, s := range skills {
		labels = append(labels, s.Label)
	}
	return strings.Join(labels, ", ")
}

func projectSummaries(projects []Project) string {
	parts := make([]string, 0, len(projects))
	for _, pr := range projects {
		parts = append(parts, pr.Title+": "+pr.Description)
	}
	return strings.Join(parts, "; ")
}

// internshipSummary describes the first quest only.
func internshipSummary(quests []Quest) string {
	if len(quests) == 0 {
		return "none"
	}
	return fmt.Sprintf("%s (%s)", quests[0].Title, quests[0].Description)
}
