package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/reallyasi9/film-margin/internal/film"
	"google.golang.org/api/iterator"
)

// DefaultCollection is the Firestore collection holding parameter history.
const DefaultCollection = "film_margin_models"

// parametersDoc is how one trained set of parameters is stored in Firestore.
type parametersDoc struct {
	Descriptive    map[string]float64 `firestore:"descriptive"`
	Predictive     map[string]float64 `firestore:"predictive"`
	UpdatedThrough film.SeasonWeek    `firestore:"updated_through"`
	Timestamp      time.Time          `firestore:"timestamp,serverTimestamp"`
}

// FirestoreStore appends every written parameter set to a collection and reads back the newest.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore returns a store writing to DefaultCollection.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client, collection: DefaultCollection}
}

// OpenFirestore connects to the project's Firestore through a Firebase app. The caller closes the returned client.
func OpenFirestore(ctx context.Context, projectID string) (*FirestoreStore, *firestore.Client, error) {
	conf := &firebase.Config{ProjectID: projectID}
	app, err := firebase.NewApp(ctx, conf)
	if err != nil {
		return nil, nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("firestore client: %w", err)
	}
	return NewFirestoreStore(client), client, nil
}

// Write implements ParameterStore. Earlier documents are kept as history.
func (s *FirestoreStore) Write(ctx context.Context, params *film.ModelParameters) error {
	doc := parametersDoc{
		Descriptive:    params.Descriptive.Map(),
		Predictive:     params.Predictive.Map(),
		UpdatedThrough: params.UpdatedThrough,
	}
	ref := s.client.Collection(s.collection).NewDoc()
	if _, err := ref.Create(ctx, &doc); err != nil {
		return fmt.Errorf("create %s/%s: %w", s.collection, ref.ID, err)
	}
	return nil
}

// Read implements ParameterStore.
func (s *FirestoreStore) Read(ctx context.Context) (*film.ModelParameters, error) {
	iter := s.client.Collection(s.collection).OrderBy("timestamp", firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()
	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, ErrNoParameters
	}
	if err != nil {
		return nil, err
	}

	var doc parametersDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", snap.Ref.ID, err)
	}
	desc, err := film.CoefficientSetFromMap(doc.Descriptive)
	if err != nil {
		return nil, fmt.Errorf("%s descriptive: %w", snap.Ref.ID, err)
	}
	pred, err := film.CoefficientSetFromMap(doc.Predictive)
	if err != nil {
		return nil, fmt.Errorf("%s predictive: %w", snap.Ref.ID, err)
	}
	return &film.ModelParameters{Descriptive: desc, Predictive: pred, UpdatedThrough: doc.UpdatedThrough}, nil
}
