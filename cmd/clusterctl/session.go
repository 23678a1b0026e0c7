package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/clustering"
	"github.com/poi-cluster-service/internal/config"
	"github.com/poi-cluster-service/internal/domain"
	"github.com/poi-cluster-service/internal/layers"
	"github.com/poi-cluster-service/internal/mapview"
	"github.com/poi-cluster-service/internal/pkg/logger"
	"github.com/poi-cluster-service/internal/repository/cache"
	"github.com/poi-cluster-service/internal/repository/file"
	redisRepo "github.com/poi-cluster-service/internal/repository/redis"
	"github.com/poi-cluster-service/internal/visibility"
)

type sessionOptions struct {
	zooms     []float64
	lon, lat  float64
	redisHost string
	redisPort int
	group     string
	workers   int
	timeout   time.Duration
}

// sessionStep - состояние карты после перехода на очередной зум
type sessionStep struct {
	Zoom   float64                  `json:"zoom" yaml:"zoom"`
	Hidden []string                 `json:"hidden" yaml:"hidden"`
	Layers []layers.RenderableLayer `json:"layers" yaml:"layers"`
}

// session проигрывает последовательность зумов на одной карте.
// Без --redis-host скрытые точки считает встроенный пул,
// иначе запросы уходят воркеру через Redis Streams.
func newSessionCmd(opts *options) *cobra.Command {
	so := &sessionOptions{}
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Replay zoom changes on a map session and print its layers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(so.zooms) == 0 {
				return errors.New("at least one zoom is required")
			}

			log, err := logger.NewStderr(opts.logLevel)
			if err != nil {
				return err
			}
			points, err := file.NewPointRepository(opts.dataset, log).LoadAll(cmd.Context())
			if err != nil {
				return err
			}

			cfg := mapview.DefaultConfig()
			cfg.Cluster.Radius = opts.radius
			cfg.Cluster.MaxZoom = opts.maxZoom

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			transport, closeTransport, err := so.transport(ctx, cfg.Cluster, log)
			if err != nil {
				return err
			}
			defer closeTransport()

			s, err := mapview.NewSession(points, cfg, transport, log)
			if err != nil {
				return err
			}
			s.Start(ctx)
			defer s.Close()

			steps := make([]sessionStep, 0, len(so.zooms))
			for _, zoom := range so.zooms {
				v := domain.ViewportState{Longitude: so.lon, Latitude: so.lat, Zoom: zoom}
				if err := s.SetViewport(ctx, v); err != nil {
					return err
				}
				hidden, err := waitForTier(ctx, s, v.ZoomTier(), so.timeout)
				if err != nil {
					return fmt.Errorf("zoom %v: %w", zoom, err)
				}
				steps = append(steps, sessionStep{Zoom: zoom, Hidden: hidden.Names(), Layers: s.Layers()})
			}
			return opts.print(cmd, steps)
		},
	}

	flags := cmd.Flags()
	flags.Float64SliceVar(&so.zooms, "zooms", []float64{3, 8, 12, 14.5, 16}, "Zoom levels to visit in order")
	flags.Float64Var(&so.lon, "lon", 0, "Viewport center longitude")
	flags.Float64Var(&so.lat, "lat", 0, "Viewport center latitude")
	flags.StringVar(&so.redisHost, "redis-host", "", "Redis host of the visibility worker (empty - compute in process)")
	flags.IntVar(&so.redisPort, "redis-port", 6379, "Redis port")
	flags.StringVar(&so.group, "group", "clusterctl", "Consumer group for visibility responses")
	flags.IntVar(&so.workers, "workers", 2, "In-process visibility workers")
	flags.DurationVar(&so.timeout, "timeout", 10*time.Second, "Wait limit for each visibility response")
	return cmd
}

func (so *sessionOptions) transport(ctx context.Context, opts clustering.Options, log *zap.Logger) (visibility.Transport, func(), error) {
	if so.redisHost == "" {
		d := visibility.NewDispatcher(so.workers, opts, log)
		d.Start(ctx)
		return d, d.Close, nil
	}

	client, err := cache.NewRedisStreams(&config.RedisConfig{Host: so.redisHost, Port: so.redisPort}, time.Second, log)
	if err != nil {
		return nil, nil, err
	}
	consumer := fmt.Sprintf("clusterctl-%d", os.Getpid())
	t := visibility.NewStreamTransport(redisRepo.NewStreamRepository(client, log), so.group, consumer, log)
	if err := t.Start(ctx); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return t, func() {
		t.Close()
		if err := client.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}, nil
}

// waitForTier ждёт, пока применённое множество не будет посчитано для уровня tier.
// Зум внутри уже запрошенного уровня нового запроса не порождает.
func waitForTier(ctx context.Context, s *mapview.Session, tier int, timeout time.Duration) (domain.HiddenSet, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if hidden, zoom, ok := s.Hidden(); ok && int(math.Floor(zoom)) == tier {
			return hidden, nil
		}

		select {
		case u, ok := <-s.Updates():
			if !ok {
				return nil, errors.New("session closed")
			}
			if u.Err != nil && int(math.Floor(u.Zoom)) == tier {
				return nil, u.Err
			}
		case <-deadline.C:
			return nil, errors.New("timed out waiting for hidden points")
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
