// Package firebaseapp builds the Firebase Admin app shared by the Firestore
// storage backend and the ID-token verifier.
package firebaseapp

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"ctspark-backend/internal/logger"
)

type Config struct {
	ProjectID       string
	CredentialsFile string
	CredentialsJSON string
}

// New initializes the Admin SDK. Without explicit credentials it falls back to
// application default credentials, which also covers the Firestore emulator.
func New(ctx context.Context, cfg Config) (*firebase.App, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	logger.ExternalServiceCall("firebase", "NewApp", "projectID", cfg.ProjectID)
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	logger.ExternalServiceResult("firebase", "NewApp", err)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	return app, nil
}
