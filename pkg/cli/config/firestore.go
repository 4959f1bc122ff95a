package config

import (
	"context"
	"log/slog"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/secmon-lab/worktime/pkg/repository"
	"github.com/urfave/cli/v3"
)

// firestoreEmulatorEnv is honored by the Firestore client itself
const firestoreEmulatorEnv = "FIRESTORE_EMULATOR_HOST"

// Firestore selects where tickets and time entries are stored
type Firestore struct {
	ProjectID  string
	DatabaseID string
}

// Flags returns CLI flags for Firestore configuration
func (f *Firestore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "GCP project ID for Firestore (memory store when empty)",
			Category:    "Storage",
			Sources:     cli.EnvVars("WORKTIME_FIRESTORE_PROJECT"),
			Destination: &f.ProjectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Category:    "Storage",
			Value:       "(default)",
			Sources:     cli.EnvVars("WORKTIME_FIRESTORE_DATABASE"),
			Destination: &f.DatabaseID,
		},
	}
}

// Configure opens the store. Without a project the memory store is used,
// which suits a one-shot server fed by --fetch-interval but loses everything
// a separate fetch command writes.
func (f *Firestore) Configure(ctx context.Context) (interfaces.Repository, error) {
	logger := ctxlog.From(ctx)

	if !f.IsConfigured() {
		logger.Warn("No Firestore project given, storing time entries in memory. They are lost on exit")
		return repository.NewMemory(), nil
	}

	repo, err := repository.NewFirestore(ctx, f.ProjectID, f.DatabaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open time entry store",
			goerr.V("project", f.ProjectID),
			goerr.V("database", f.DatabaseID),
			goerr.V("emulator", os.Getenv(firestoreEmulatorEnv)),
		)
	}

	logger.Debug("Firestore store opened", slog.Any("firestore", f))
	return repo, nil
}

// IsConfigured checks if a Firestore project is set
func (f *Firestore) IsConfigured() bool {
	return f.ProjectID != ""
}

// LogValue returns structured log value
func (f Firestore) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("project", f.ProjectID),
		slog.String("database", f.DatabaseID),
	}
	if host := os.Getenv(firestoreEmulatorEnv); host != "" {
		attrs = append(attrs, slog.String("emulator", host))
	}
	return slog.GroupValue(attrs...)
}
