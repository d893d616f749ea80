package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"certcy/career-api/internal/logger"
	"certcy/career-api/internal/models"
)

const (
	recommendationCount = 5
	questionCount       = 5
	courseCount         = 3
	maxResumeChars      = 4000
)

const jsonOnlySystem = "Respond with a single valid JSON object and nothing else. Do not wrap it in markdown."

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildRecommendationPrompt asks for career pivot paths for the given profile.
func (pb *PromptBuilder) BuildRecommendationPrompt(profile *models.OnboardingProfile) (string, string) {
	system := "You are a career strategist who helps professionals whose roles are exposed to automation find realistic career pivots. " + jsonOnlySystem

	user := fmt.Sprintf(`Recommend exactly %d career paths for this professional.

PROFILE:
%s

Return JSON in exactly this shape:
{
  "recommendations": [
    {
      "id": "<kebab-case slug, unique in this list>",
      "title": "<career title>",
      "match": <integer between 70 and 95>,
      "description": "<2-3 sentences on why this path fits>",
      "skills": ["<skill to build>", "..."],
      "growth": "<Very High | High | Moderate>",
      "salary": "<typical salary range, e.g. $90k - $130k>"
    }
  ]
}

Order the list from best to weakest match.`, recommendationCount, formatProfile(profile, false))

	return system, user
}

// BuildAssessmentPrompt asks for a short skill quiz and course suggestions for one career path.
func (pb *PromptBuilder) BuildAssessmentPrompt(rec *models.CareerRecommendation, profile *models.OnboardingProfile, references string) (string, string) {
	system := "You are a technical assessor writing fair multiple-choice skill checks and a course advisor picking practical online courses. " + jsonOnlySystem

	var b strings.Builder
	fmt.Fprintf(&b, "Create a skill assessment for someone moving into the role of %s.\n\n", rec.Title)
	fmt.Fprintf(&b, "CAREER PATH:\n- Title: %s\n- Description: %s\n", rec.Title, rec.Description)
	if len(rec.Skills) > 0 {
		fmt.Fprintf(&b, "- Key skills: %s\n", strings.Join(rec.Skills, ", "))
	}

	if profile != nil {
		fmt.Fprintf(&b, "\nCANDIDATE PROFILE:\n%s\n", formatProfile(profile, false))
	} else {
		b.WriteString("\nNo candidate profile is available; write questions for a motivated beginner.\n")
	}

	if references != "" {
		fmt.Fprintf(&b, "\nREFERENCE COURSES:\n%s\n", references)
	}

	fmt.Fprintf(&b, `
Write exactly %d multiple-choice questions with exactly 4 options each, and recommend exactly %d courses.

Return JSON in exactly this shape:
{
  "questions": [
    {
      "question": "<question text>",
      "options": ["<A>", "<B>", "<C>", "<D>"],
      "correctAnswer": <index 0-3 of the correct option>
    }
  ],
  "courseRecommendations": [
    {
      "title": "<course title>",
      "provider": "<platform or institution>",
      "description": "<what the learner gains>",
      "duration": "<e.g. 6 weeks>",
      "level": "<Beginner | Intermediate | Advanced>",
      "url": "<course url if known>",
      "roadmapSteps": "<comma-separated list of 4-6 learning steps>"
    }
  ]
}`, questionCount, courseCount)

	return system, b.String()
}

// BuildRoadmapPrompt asks for a week-by-week learning plan built around the selected course.
func (pb *PromptBuilder) BuildRoadmapPrompt(careerTitle string, course *models.CourseRecommendation, profile *models.OnboardingProfile, references string) (string, string) {
	system := "You are a learning designer who turns a course and a learner profile into a concrete weekly plan. " + jsonOnlySystem

	var b strings.Builder
	if careerTitle != "" {
		fmt.Fprintf(&b, "Build a learning roadmap toward the role of %s.\n", careerTitle)
	} else {
		b.WriteString("Build a personalised learning roadmap.\n")
	}

	if course != nil {
		fmt.Fprintf(&b, "\nSELECTED COURSE:\n- Title: %s\n- Provider: %s\n- Level: %s\n- Duration: %s\n- Description: %s\n",
			course.Title, course.Provider, course.Level, course.Duration, course.Description)
		if len(course.RoadmapSteps) > 0 {
			fmt.Fprintf(&b, "- Steps: %s\n", strings.Join(course.RoadmapSteps, ", "))
		}
	}

	if profile != nil {
		fmt.Fprintf(&b, "\nLEARNER PROFILE:\n%s\n", formatProfile(profile, true))
	}

	if references != "" {
		fmt.Fprintf(&b, "\nREFERENCE COURSES:\n%s\n", references)
	}

	b.WriteString(`
Fit the plan to the learner's weekly time budget. Each week has 3 to 5 activities.

Return JSON in exactly this shape:
{
  "title": "<roadmap title>",
  "description": "<one paragraph overview>",
  "totalWeeks": <number of weeks>,
  "weeks": [
    {
      "weekNumber": <1-based week number>,
      "theme": "<focus of the week>",
      "activities": [
        {
          "type": "<course | reading | project | practice | video>",
          "title": "<activity title>",
          "description": "<what to do>",
          "estimatedTime": "<e.g. 2 hours>",
          "resource": "<link or resource name>"
        }
      ],
      "goals": ["<goal>"],
      "outcomes": ["<measurable outcome>"]
    }
  ]
}`)

	return system, b.String()
}

// BuildChatSystemPrompt grounds the career coach in what is known about the caller.
func (pb *PromptBuilder) BuildChatSystemPrompt(user *models.UserIdentity, profile *models.OnboardingProfile, recs []models.CareerRecommendation) string {
	var b strings.Builder
	b.WriteString("You are Certcy's career coach. Give concise, practical and encouraging advice about career pivots, upskilling and job-search strategy. ")
	b.WriteString("Answer in plain text. If you do not know something specific, say so.\n")

	if name := user.DisplayName(); name != "" {
		fmt.Fprintf(&b, "\nYou are talking to %s.\n", name)
	}

	if profile != nil {
		fmt.Fprintf(&b, "\nPROFILE:\n%s\n", formatProfile(profile, false))
	}

	if len(recs) > 0 {
		b.WriteString("\nSAVED CAREER RECOMMENDATIONS:\n")
		for _, r := range recs {
			fmt.Fprintf(&b, "- %s (%d%% match): %s\n", r.Title, r.Match, r.Description)
		}
	}

	return b.String()
}

// BuildCatalogueQueries returns the retrieval queries for a career path and optional course.
func (pb *PromptBuilder) BuildCatalogueQueries(careerTitle string, course *models.CourseRecommendation) []string {
	var queries []string
	if careerTitle != "" {
		queries = append(queries, fmt.Sprintf("Courses and certifications for becoming a %s", careerTitle))
	}
	if course != nil && course.Title != "" {
		queries = append(queries, fmt.Sprintf("%s %s course syllabus", course.Provider, course.Title))
	}
	return queries
}

func formatProfile(p *models.OnboardingProfile, withAnswers bool) string {
	if p == nil {
		return "- Not provided"
	}

	lines := []string{
		"- Current role: " + orUnknown(p.JobTitle),
		"- Experience: " + orUnknown(p.Experience),
		"- Top skills: " + orUnknown(strings.Join(p.Skills(), ", ")),
		"- Time available for learning: " + orUnknown(p.TimeAvailable),
		"- Industry interest: " + orUnknown(p.IndustryInterest),
		"- Main concern: " + orUnknown(p.Concern),
	}

	if withAnswers && len(p.Answers) > 0 {
		lines = append(lines, "- All onboarding answers:\n"+formatAnswers(p.Answers))
	}

	if resume := strings.TrimSpace(p.ResumeText); resume != "" {
		lines = append(lines, "- Resume excerpt:\n"+logger.TruncateForLog(resume, maxResumeChars))
	}

	return strings.Join(lines, "\n")
}

func formatAnswers(answers map[string]any) string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		var value string
		switch v := answers[k].(type) {
		case string:
			value = v
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				value = fmt.Sprint(v)
			} else {
				value = string(raw)
			}
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", k, value))
	}
	return strings.Join(lines, "\n")
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "not specified"
	}
	return s
}
