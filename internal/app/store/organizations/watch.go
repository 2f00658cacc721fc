// internal/app/store/organizations/watch.go
package organizationstore

import (
	"context"

	"github.com/moimhub/moimhub/internal/app/session"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WatchOrgStatus opens a live subscription to one organization's status
// field, emitting the current value first and then every change. Implements
// session.OrgStatusSource.
func (s *Store) WatchOrgStatus(ctx context.Context, orgID string) (session.StatusSubscription, error) {
	oid, err := primitive.ObjectIDFromHex(orgID)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "documentKey._id", Value: oid},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	streamCtx, cancel := context.WithCancel(ctx)
	cs, err := s.c.Watch(streamCtx, pipeline, opts)
	if err != nil {
		cancel()
		return nil, err
	}

	w := &statusWatch{
		statuses: make(chan string, 4),
		cancel:   cancel,
	}
	go w.run(streamCtx, s, oid, cs)
	return w, nil
}

type statusWatch struct {
	statuses chan string
	cancel   context.CancelFunc
}

func (w *statusWatch) Statuses() <-chan string { return w.statuses }

// Close releases the change stream. Safe to call more than once.
func (w *statusWatch) Close() { w.cancel() }

func (w *statusWatch) run(ctx context.Context, s *Store, oid primitive.ObjectID, cs *mongo.ChangeStream) {
	defer close(w.statuses)
	defer cs.Close(context.Background())

	if org, err := s.GetByID(ctx, oid); err == nil {
		w.emit(ctx, org.Status)
	}

	for cs.Next(ctx) {
		var change struct {
			FullDocument struct {
				Status string `bson:"status"`
			} `bson:"fullDocument"`
		}
		if err := cs.Decode(&change); err != nil {
			continue
		}
		if change.FullDocument.Status != "" {
			w.emit(ctx, change.FullDocument.Status)
		}
	}
}

func (w *statusWatch) emit(ctx context.Context, st string) {
	select {
	case w.statuses <- st:
	case <-ctx.Done():
	}
}
