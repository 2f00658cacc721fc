// internal/domain/models/survey.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Survey is an organization-scoped questionnaire. Questions are free-text
// prompts answered in order; ClosesAt gates new responses when set.
type Survey struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID string             `bson:"organization_id" json:"organization_id"`
	Title          string             `bson:"title" json:"title"`
	TitleCI        string             `bson:"title_ci" json:"-"`
	Questions      []string           `bson:"questions" json:"questions"`

	ClosesAt *time.Time `bson:"closes_at,omitempty" json:"closes_at,omitempty"`

	AuthorID  string    `bson:"author_id" json:"author_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IsClosed reports whether the survey no longer accepts responses at t.
func (s Survey) IsClosed(t time.Time) bool {
	return s.ClosesAt != nil && t.After(*s.ClosesAt)
}

// SurveyResponse holds one user's answers to a survey. Exactly one document
// per (survey_id, user_id): answering again overwrites the previous answers
// rather than appending a duplicate.
type SurveyResponse struct {
	ID       string             `bson:"_id" json:"id"` // stable per (survey, user)
	SurveyID primitive.ObjectID `bson:"survey_id" json:"survey_id"`
	UserID   string             `bson:"user_id" json:"user_id"`
	Answers  []string           `bson:"answers" json:"answers"`

	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`
}
