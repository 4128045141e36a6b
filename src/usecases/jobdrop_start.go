package usecases

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/joeg-ita/jobdrop/src/config"
	"github.com/joeg-ita/jobdrop/src/domain"
	"github.com/joeg-ita/jobdrop/src/handlers"
	"github.com/joeg-ita/jobdrop/src/services"
	"github.com/joeg-ita/jobdrop/src/utils"
)

const SHUTDOWN_TIMEOUT = 10 * time.Second

// JobdropStart owns every shared resource of the process. They are built
// once and handed to the use cases by constructor injection.
type JobdropStart struct {
	Config     *config.Config
	BlobStore  domain.BlobStoreInt
	Jobs       *Jobs
	Search     *Search
	Reconciler *Reconciler

	dbClient *services.MongodbClient
	jobsRepo *services.MongodbJobs
	broker   *services.RedisBroker
}

func NewJobdropStart(ctx context.Context, cfg *config.Config) (*JobdropStart, error) {
	log := utils.GetLogger()
	s := &JobdropStart{Config: cfg}

	blobStore, err := NewBlobStore(ctx, cfg.Blob)
	if err != nil {
		return nil, err
	}
	s.BlobStore = blobStore

	s.dbClient, err = services.NewMongodbClient(cfg.Database)
	if err != nil {
		return nil, err
	}

	s.jobsRepo, err = services.NewMongodbJobs(s.dbClient, cfg.Database)
	if err != nil {
		s.Stop()
		return nil, err
	}

	if cfg.Broker.Url != "" {
		s.broker, err = services.NewRedisBrokerByUrl(cfg.Broker.Url)
		if err != nil {
			s.Stop()
			return nil, err
		}
	} else {
		log.Warnw("no broker configured, orphans are only logged")
	}

	s.Jobs = NewJobs(s.BlobStore, s.jobsRepo, s.brokerInt(), cfg.Blob.Folder)
	s.Search = NewSearch(s.jobsRepo)
	s.Reconciler = NewReconciler(s.BlobStore, s.jobsRepo, s.brokerInt(), cfg.Blob.Folder, cfg.Reconcile.MinAge, cfg.Reconcile.Delete)

	return s, nil
}

// NewBlobStore selects the backend named by the blob provider.
func NewBlobStore(ctx context.Context, cfg config.Blob) (domain.BlobStoreInt, error) {
	switch cfg.Provider {
	case config.BlobProviderCloudinary, "":
		return services.NewCloudinaryStore(cfg.Cloudinary)
	case config.BlobProviderS3:
		return services.NewS3Store(ctx, cfg.S3)
	default:
		return nil, errors.Newf("unknown blob provider %q", cfg.Provider)
	}
}

// brokerInt keeps a missing broker an untyped nil for the use cases.
func (s *JobdropStart) brokerInt() domain.BrokerInt {
	if s.broker == nil {
		return nil
	}
	return s.broker
}

// Run serves HTTP until ctx ends, with the reconciler and the activity
// watcher running alongside.
func (s *JobdropStart) Run(ctx context.Context) error {
	log := utils.GetLogger()

	if s.Config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &http.Server{
		Addr:    s.Config.Http.Addr,
		Handler: handlers.NewRouter(s.Jobs, s.Search),
	}

	if schedule := s.Config.Reconcile.Schedule; schedule != "" {
		if err := utils.ParseCronSchedule(schedule); err != nil {
			return errors.Wrapf(err, "invalid reconcile schedule %q", schedule)
		}
		go s.Reconciler.Start(ctx, schedule)
	}

	if s.broker != nil {
		go s.watchActivities(ctx)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	log.Infow("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// watchActivities logs every message on the activities channel.
func (s *JobdropStart) watchActivities(ctx context.Context) {
	log := utils.GetLogger()
	log.Infow("subscribing channel", "channel", domain.ACTIVITIES_CHANNEL)

	pubsub := s.broker.Subscribe(ctx, domain.ACTIVITIES_CHANNEL)
	defer pubsub.Close()
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			log.Infow("activity", "channel", msg.Channel, "payload", msg.Payload)
		}
	}
}

// Stop releases the database and broker connections.
func (s *JobdropStart) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()

	if s.broker != nil {
		s.broker.Close()
	}
	if s.dbClient != nil {
		s.dbClient.Close(ctx)
	}
}
