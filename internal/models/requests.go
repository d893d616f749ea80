package models

import "encoding/json"

type OnboardingRequest struct {
	JobTitle         string         `json:"jobTitle"`
	Experience       string         `json:"experience"`
	TopSkills        []string       `json:"topSkills"`
	TimeAvailable    string         `json:"timeAvailable"`
	IndustryInterest string         `json:"industryInterest"`
	Concern          string         `json:"concern"`
	Answers          map[string]any `json:"answers"`
}

type CreateTestRequest struct {
	CareerPathID string `json:"careerPathId"`
}

type AnswerSubmission struct {
	QuestionID string `json:"questionId"`
	UserAnswer int    `json:"userAnswer"`
}

type SubmitTestRequest struct {
	TestID  string             `json:"testId"`
	Answers []AnswerSubmission `json:"answers"`
}

type SelectCourseRequest struct {
	TestID              string `json:"testId"`
	RecommendationIndex *int   `json:"recommendationIndex"`
}

// RoadmapPatchRequest is decoded with encoding/json so that Optional can tell
// an omitted key from an explicit null. CompletedSteps stays raw because only
// an array value is applied.
type RoadmapPatchRequest struct {
	RoadmapID      string                    `json:"roadmapId"`
	CompletedSteps Optional[json.RawMessage] `json:"completedSteps"`
	SelectedPivot  Optional[json.RawMessage] `json:"selectedPivot"`
}

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history"`
}

type SubmitTestResponse struct {
	Score int             `json:"score"`
	Test  *CareerPathTest `json:"test"`
}
