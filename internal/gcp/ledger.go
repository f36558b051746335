package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/Lllllllleong/reportlabeler/internal/models"
)

// FirestoreLedger records label runs as documents in one collection.
type FirestoreLedger struct {
	client     *firestore.Client
	collection *firestore.CollectionRef
}

// OpenFirestoreLedger connects to projectID and records runs in collection.
// The ledger owns the client; Close releases it.
func OpenFirestoreLedger(ctx context.Context, projectID, collection string, opts ...option.ClientOption) (*FirestoreLedger, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	ledger, err := NewFirestoreLedger(client, collection)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return ledger, nil
}

// NewFirestoreLedger builds a ledger over the named collection.
func NewFirestoreLedger(client *firestore.Client, collection string) (*FirestoreLedger, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	return &FirestoreLedger{client: client, collection: client.Collection(collection)}, nil
}

// Close releases the Firestore client.
func (l *FirestoreLedger) Close() error {
	return l.client.Close()
}

// Begin creates the run record and returns its document ID.
func (l *FirestoreLedger) Begin(ctx context.Context, run models.LabelRun) (string, error) {
	docRef, _, err := l.collection.Add(ctx, run)
	if err != nil {
		return "", fmt.Errorf("failed to create run document: %w", err)
	}
	return docRef.ID, nil
}

// Update applies the non-empty fields of run to the record.
func (l *FirestoreLedger) Update(ctx context.Context, runID string, run models.LabelRun) error {
	updates := []firestore.Update{{Path: "status", Value: run.Status}}
	optional := map[string]string{
		"sourceUrl":           run.SourceURL,
		"artifactName":        run.ArtifactName,
		"labeledArtifactName": run.LabeledArtifactName,
		"failedStage":         run.FailedStage,
		"errorKind":           run.ErrorKind,
		"errorDetails":        run.ErrorDetails,
	}
	for path, value := range optional {
		if value != "" {
			updates = append(updates, firestore.Update{Path: path, Value: value})
		}
	}
	if _, err := l.collection.Doc(runID).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update run %s: %w", runID, err)
	}
	return nil
}
