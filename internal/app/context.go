package app

import (
	"context"
	"errors"

	"bidline/internal/config"
	"bidline/internal/repo"
)

// ResolveDeskConfig resolves the active desk configuration, seeding defaults
// into the DB on first use. A workspace bidline.yml, when present, wins over
// the stored copy and is written back so the DB stays the source of truth
// for the API surface.
func ResolveDeskConfig(ctx context.Context, workspace, deskOverride string, r repo.Repo) (string, *config.Config, error) {
	deskID := deskOverride
	if deskID == "" {
		deskID = "default-desk"
	}

	if fileCfg, err := config.LoadOptional(workspace); err != nil {
		return "", nil, err
	} else if fileCfg != nil {
		if fileCfg.Desk.ID != "" && deskOverride == "" {
			deskID = fileCfg.Desk.ID
		}
		if err := r.UpsertDeskConfig(ctx, deskID, fileCfg); err != nil {
			return "", nil, err
		}
		return deskID, fileCfg, nil
	}

	cfg, err := r.GetDeskConfig(ctx, deskID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return "", nil, err
		}
		cfg = config.Default(deskID)
		if err := r.UpsertDeskConfig(ctx, deskID, cfg); err != nil {
			return "", nil, err
		}
	}
	cfg.Desk.ID = deskID
	return deskID, cfg, nil
}
