package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"taskdesk/internal/backend/restapi"
	"taskdesk/internal/commands"
	"taskdesk/internal/config"
	"taskdesk/internal/store"
)

// NewAPIFactory returns a StoreFactory backed by the REST client, plus the
// registry its request metrics are recorded in. A stored token, when
// present, is sent as a bearer token.
func NewAPIFactory(opts ...restapi.Option) (StoreFactory, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	metrics := restapi.NewMetrics(reg)

	factory := func(ctx context.Context, cfg *config.Config) (*store.Store, error) {
		logger := slog.Default()

		clientOpts := []restapi.Option{
			restapi.WithMetrics(metrics),
			restapi.WithLogger(logger),
			restapi.WithUserAgent("taskdesk/" + commands.Version),
		}
		tok, err := cfg.LoadToken()
		switch {
		case err == nil:
			clientOpts = append(clientOpts, restapi.WithToken(tok))
		case !errors.Is(err, config.ErrNoToken):
			return nil, err
		}
		clientOpts = append(clientOpts, opts...)

		client, err := restapi.New(ctx, cfg.APIBaseURL, clientOpts...)
		if err != nil {
			return nil, err
		}
		return store.New(client,
			store.WithLogger(logger),
			store.WithPriorityMigration(cfg.PriorityMigration),
		), nil
	}
	return factory, reg
}
