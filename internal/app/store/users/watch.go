// internal/app/store/users/watch.go
package userstore

import (
	"context"

	"github.com/moimhub/moimhub/internal/app/session"
	"github.com/moimhub/moimhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WatchUser opens a live subscription to one user document, backed by a
// change stream. The subscription emits the current state first (including
// the distinguishable "does not exist" state), then every subsequent
// change. Implements session.UserSource.
func (s *Store) WatchUser(ctx context.Context, userID string) (session.UserSubscription, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "documentKey._id", Value: userID},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	streamCtx, cancel := context.WithCancel(ctx)
	cs, err := s.c.Watch(streamCtx, pipeline, opts)
	if err != nil {
		cancel()
		return nil, err
	}

	w := &userWatch{
		events: make(chan session.UserEvent, 4),
		cancel: cancel,
	}
	go w.run(streamCtx, s, userID, cs)
	return w, nil
}

type userWatch struct {
	events chan session.UserEvent
	cancel context.CancelFunc
}

func (w *userWatch) Events() <-chan session.UserEvent { return w.events }

// Close releases the change stream. Safe to call more than once; the events
// channel closes once the stream drains.
func (w *userWatch) Close() { w.cancel() }

func (w *userWatch) run(ctx context.Context, s *Store, userID string, cs *mongo.ChangeStream) {
	defer close(w.events)
	defer cs.Close(context.Background())

	// Initial emission: the stream only carries changes after this point,
	// so the current state (or its absence) is read and published first.
	u, err := s.Get(ctx, userID)
	if err == nil {
		w.emit(ctx, session.UserEvent{User: u, Exists: u != nil})
	}

	for cs.Next(ctx) {
		var change struct {
			OperationType string      `bson:"operationType"`
			FullDocument  models.User `bson:"fullDocument"`
		}
		if err := cs.Decode(&change); err != nil {
			continue
		}
		switch change.OperationType {
		case "delete":
			w.emit(ctx, session.UserEvent{Exists: false})
		default:
			doc := change.FullDocument
			w.emit(ctx, session.UserEvent{User: &doc, Exists: true})
		}
	}
}

func (w *userWatch) emit(ctx context.Context, ev session.UserEvent) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

func optionsUpdateUpsert() *options.UpdateOptions {
	return options.Update().SetUpsert(true)
}
