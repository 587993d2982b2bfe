package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/macrotrack/apiserver/config"
	"github.com/macrotrack/apiserver/internal/db"
	"github.com/macrotrack/apiserver/internal/services"
	"github.com/macrotrack/apiserver/internal/storage"
	"github.com/macrotrack/apiserver/internal/store"
	"github.com/macrotrack/apiserver/internal/store/dynamo"
	"github.com/macrotrack/apiserver/internal/store/memory"
	"github.com/macrotrack/apiserver/internal/store/objects"
)

// Repositories bundles the three collections of the selected backend.
type Repositories struct {
	AllowList services.AllowListRepository
	Goals     services.GoalRepository
	Meals     services.MealRepository

	closers []func() error
}

// Close releases backend connections.
func (r *Repositories) Close() error {
	var errs []error
	for _, closeFn := range r.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemoryRepositories returns repositories over a fresh in-process store.
func MemoryRepositories() *Repositories {
	st := memory.New()
	return &Repositories{
		AllowList: st.AllowList(),
		Goals:     st.Goals(),
		Meals:     st.Meals(),
	}
}

// OpenRepositories connects to the backend named by cfg.StoreBackend.
func OpenRepositories(ctx context.Context, cfg config.Config) (*Repositories, error) {
	switch cfg.StoreBackend {
	case config.StoreDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, fmt.Errorf("dynamodb client: %w", err)
		}
		return &Repositories{
			AllowList: dynamo.NewAllowListRepository(client, cfg.Tables.AllowList),
			Goals:     dynamo.NewGoalRepository(client, cfg.Tables.Goals),
			Meals:     dynamo.NewMealRepository(client, cfg.Tables.Meals, cfg.Tables.MealsDateIndex),
		}, nil

	case config.StorePostgres:
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return &Repositories{
			AllowList: store.NewAllowListRepository(dbConn),
			Goals:     store.NewGoalRepository(dbConn),
			Meals:     store.NewMealRepository(dbConn),
			closers:   []func() error{dbConn.Close},
		}, nil

	case config.StoreObjects:
		backend, closers, err := openObjectStorage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			AllowList: objects.NewAllowListRepository(backend),
			Goals:     objects.NewGoalRepository(backend),
			Meals:     objects.NewMealRepository(backend),
			closers:   closers,
		}, nil

	case config.StoreMemory:
		return MemoryRepositories(), nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

func openObjectStorage(ctx context.Context, cfg config.Config) (*storage.Storage, []func() error, error) {
	var (
		backend storage.ObjectStorage
		closers []func() error
	)

	switch cfg.ObjectStore {
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, nil, fmt.Errorf("minio client: %w", err)
		}
		backend = client
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs client: %w", err)
		}
		backend = client
		closers = append(closers, client.Close)
	default:
		return nil, nil, fmt.Errorf("unsupported object store %q", cfg.ObjectStore)
	}

	objectStorage := storage.NewStorage(backend)
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		for _, closeFn := range closers {
			_ = closeFn()
		}
		return nil, nil, fmt.Errorf("ensure bucket %s: %w", objectStorage.Bucket(), err)
	}
	return objectStorage, closers, nil
}
