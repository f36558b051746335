package models

import "time"

// Run statuses recorded while a report moves through the pipeline.
const (
	StatusFetching          = "FETCHING"
	StatusPersistingRaw     = "PERSISTING_RAW"
	StatusLabeling          = "LABELING"
	StatusPersistingLabeled = "PERSISTING_LABELED"
	StatusDelivering        = "DELIVERING"
	StatusDone              = "DONE"
	StatusFailed            = "FAILED"
)

// LabelRun is the ledger record for one labeling request in Firestore.
// It tracks where the run is in the pipeline and why it stopped, if it did.
type LabelRun struct {
	SheetName           string    `firestore:"sheetName,omitempty"`
	Region              string    `firestore:"region,omitempty"`
	LabelText           string    `firestore:"labelText,omitempty"`
	SourceURL           string    `firestore:"sourceUrl,omitempty"`
	ArtifactName        string    `firestore:"artifactName,omitempty"`
	LabeledArtifactName string    `firestore:"labeledArtifactName,omitempty"`
	Status              string    `firestore:"status,omitempty"`
	FailedStage         string    `firestore:"failedStage,omitempty"`
	ErrorKind           string    `firestore:"errorKind,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty"`
	CreatedAt           time.Time `firestore:"createdAt,omitempty"`
}
