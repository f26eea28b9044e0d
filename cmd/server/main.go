package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/openplaces/directory-sdk/migrations"
	dirpersistence "github.com/openplaces/directory-sdk/modules/directory/infrastructure/persistence"
	dirservices "github.com/openplaces/directory-sdk/modules/directory/services"
	"github.com/openplaces/directory-sdk/modules/moderation/appliers"
	"github.com/openplaces/directory-sdk/modules/moderation/domain/updaterequest"
	modpersistence "github.com/openplaces/directory-sdk/modules/moderation/infrastructure/persistence"
	modservices "github.com/openplaces/directory-sdk/modules/moderation/services"
	"github.com/openplaces/directory-sdk/modules/moderation/presentation/controllers"
	"github.com/openplaces/directory-sdk/pkg/composables"
	"github.com/openplaces/directory-sdk/pkg/configuration"
	"github.com/openplaces/directory-sdk/pkg/eventbus"
	"github.com/openplaces/directory-sdk/pkg/metrics"
	"github.com/openplaces/directory-sdk/pkg/notifications"
	"github.com/openplaces/directory-sdk/pkg/outbox"
)

func main() {
	cfg := configuration.Use()
	log := cfg.Logger()

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("server exited")
	}
}

func run(cfg *configuration.Configuration, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrate(pool); err != nil {
		return err
	}

	bus := eventbus.NewEventPublisher(log)
	bus.Subscribe(func(e modservices.RequestApproved) {
		log.WithFields(logrus.Fields{
			"update_request_id": e.Request.ID,
			"applied_id":        e.AppliedID,
		}).Debug("update request applied")
	})
	bus.Subscribe(func(e modservices.RequestCreated) {
		log.WithField("update_request_id", e.Request.ID).Debug("update request queued for moderation")
	})
	bus.Subscribe(func(e modservices.RequestRejected) {
		log.WithField("update_request_id", e.Request.ID).Debug("update request rejected")
	})

	orgs := dirpersistence.NewOrganisationRepository()
	svcs := dirpersistence.NewServiceRepository()
	pages := dirpersistence.NewPageRepository()
	events := dirpersistence.NewEventRepository()
	locations := dirpersistence.NewLocationRepository()
	users := dirpersistence.NewUserRepository()
	files := dirservices.NewFileService(dirpersistence.NewFileRepository())
	taxonomies := dirservices.NewTaxonomyService(dirpersistence.NewTaxonomyRepository())

	registry := appliers.NewRegistry()
	orgApplier := appliers.NewOrganisationApplier(orgs, files, taxonomies)
	registry.Register(updaterequest.TypeOrganisation, orgApplier)
	registry.Register(updaterequest.TypeNewOrganisationByAdmin, orgApplier)
	registry.Register(updaterequest.TypeOrganisationSignUpForm, orgApplier)
	svcApplier := appliers.NewServiceApplier(svcs, orgs, files, taxonomies)
	registry.Register(updaterequest.TypeService, svcApplier)
	registry.Register(updaterequest.TypeNewServiceByOrgAdmin, svcApplier)
	pageApplier := appliers.NewPageApplier(pages, files)
	registry.Register(updaterequest.TypePage, pageApplier)
	registry.Register(updaterequest.TypeNewPage, pageApplier)
	eventApplier := appliers.NewEventApplier(events, orgs, locations, files, taxonomies)
	registry.Register(updaterequest.TypeEvent, eventApplier)
	registry.Register(updaterequest.TypeNewEvent, eventApplier)

	requests := modpersistence.NewUpdateRequestRepository()
	resolver := modservices.NewConflictResolver(requests, log)
	updateRequests := modservices.NewUpdateRequestService(
		requests, users, registry, resolver,
		outbox.NewPublisher(), bus, cfg.AdminEmails, log,
	)

	relay, err := newNotificationRelay(cfg, pool, log)
	if err != nil {
		return err
	}
	relayDone := make(chan error, 1)
	go func() { relayDone <- relay.Run(ctx) }()

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(composables.WithPool(req.Context(), pool)))
		})
	})
	controllers.NewUpdateRequestAPIController(updateRequests, log).Register(r)
	if cfg.Prometheus.Enabled {
		metrics.NewPrometheusController(cfg.Prometheus.Path).Register(r)
	}
	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := pool.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvDone := make(chan error, 1)
	go func() { srvDone <- srv.ListenAndServe() }()
	log.WithField("address", cfg.ServerAddress).Info("server listening")

	select {
	case <-ctx.Done():
	case err := <-srvDone:
		return err
	case err := <-relayDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-relayDone
}

func migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()
	return goose.Up(db, ".")
}

func newNotificationRelay(cfg *configuration.Configuration, pool *pgxpool.Pool, log *logrus.Logger) (*outbox.Relay, error) {
	var sender notifications.Sender
	if cfg.Mailer.APIURL != "" {
		sender = notifications.NewHTTPSender(
			cfg.Mailer.APIURL, cfg.Mailer.APIKey,
			cfg.Mailer.FromAddress, cfg.Mailer.FromName,
			cfg.Mailer.Timeout,
		)
	} else {
		sender = &notifications.LogSender{Log: log}
	}

	return outbox.NewRelay(pool, modservices.NotificationOutboxTable, notifications.NewDispatcher(sender, log), outbox.RelayOptions{
		PollInterval:    cfg.Outbox.PollInterval,
		BatchSize:       cfg.Outbox.BatchSize,
		MaxAttempts:     cfg.Outbox.MaxAttempts,
		DispatchTimeout: cfg.Outbox.DispatchTimeout,
		SingleActive:    cfg.Outbox.SingleActive,
		Logger:          logrus.NewEntry(log),
	})
}
