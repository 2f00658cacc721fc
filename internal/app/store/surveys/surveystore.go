// internal/app/store/surveys/surveystore.go

// Package surveystore owns surveys and their responses. Responses are keyed
// by a deterministic (survey, user) id so answering twice overwrites the
// previous answers instead of appending a duplicate.
package surveystore

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/moimhub/moimhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c         *mongo.Collection
	responses *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:         db.Collection("surveys"),
		responses: db.Collection("survey_responses"),
	}
}

// Create inserts a survey.
func (s *Store) Create(ctx context.Context, sv models.Survey) (models.Survey, error) {
	sv.ID = primitive.NewObjectID()
	sv.TitleCI = text.Fold(sv.Title)
	sv.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, sv); err != nil {
		return models.Survey{}, err
	}
	return sv, nil
}

// GetByID loads a survey.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Survey, error) {
	var sv models.Survey
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sv); err != nil {
		return models.Survey{}, err
	}
	return sv, nil
}

// ListByOrg returns an organization's surveys, newest first.
func (s *Store) ListByOrg(ctx context.Context, orgID string) ([]models.Survey, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var surveys []models.Survey
	if err := cur.All(ctx, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

// responseID is the deterministic per-(survey, user) response key.
func responseID(surveyID primitive.ObjectID, userID string) string {
	return surveyID.Hex() + ":" + userID
}

// SubmitResponse records one user's answers. An existing response for the
// same (survey, user) pair is overwritten: submitted_at moves, the response
// count does not.
func (s *Store) SubmitResponse(ctx context.Context, surveyID primitive.ObjectID, userID string, answers []string) error {
	update := bson.M{
		"$set": bson.M{
			"survey_id":    surveyID,
			"user_id":      userID,
			"answers":      answers,
			"submitted_at": time.Now().UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.responses.UpdateOne(ctx, bson.M{"_id": responseID(surveyID, userID)}, update, opts)
	return err
}

// GetResponse loads one user's response to a survey, or mongo.ErrNoDocuments.
func (s *Store) GetResponse(ctx context.Context, surveyID primitive.ObjectID, userID string) (models.SurveyResponse, error) {
	var resp models.SurveyResponse
	err := s.responses.FindOne(ctx, bson.M{"_id": responseID(surveyID, userID)}).Decode(&resp)
	if err != nil {
		return models.SurveyResponse{}, err
	}
	return resp, nil
}

// ListResponses returns all responses to a survey.
func (s *Store) ListResponses(ctx context.Context, surveyID primitive.ObjectID) ([]models.SurveyResponse, error) {
	cur, err := s.responses.Find(ctx, bson.M{"survey_id": surveyID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var resps []models.SurveyResponse
	if err := cur.All(ctx, &resps); err != nil {
		return nil, err
	}
	return resps, nil
}

// CountResponses returns the number of distinct respondents for a survey.
func (s *Store) CountResponses(ctx context.Context, surveyID primitive.ObjectID) (int64, error) {
	return s.responses.CountDocuments(ctx, bson.M{"survey_id": surveyID})
}
