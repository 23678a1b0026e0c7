package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/poi-cluster-service/internal/clustering"
	"github.com/poi-cluster-service/internal/domain"
	"github.com/poi-cluster-service/internal/layers"
	"github.com/poi-cluster-service/internal/pkg/logger"
	"github.com/poi-cluster-service/internal/repository/file"
	"github.com/poi-cluster-service/internal/usecase"
	"github.com/poi-cluster-service/internal/usecase/dto"
)

// options - общие флаги всех подкоманд
type options struct {
	dataset  string
	radius   float64
	maxZoom  int
	useYAML  bool
	logLevel string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "clusterctl",
		Short:         "Inspect point clustering of a dataset file",
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.dataset, "dataset", "d", "data/points.geojson", "Dataset file (.geojson, .json, .yaml)")
	flags.Float64VarP(&opts.radius, "radius", "r", clustering.DefaultOptions().Radius, "Cluster radius in pixels")
	flags.IntVar(&opts.maxZoom, "max-zoom", clustering.DefaultOptions().MaxZoom, "Maximum zoom to cluster on")
	flags.BoolVarP(&opts.useYAML, "yaml", "y", false, "Output as YAML instead of JSON")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level")

	root.AddCommand(
		newClustersCmd(opts),
		newLeavesCmd(opts),
		newHiddenCmd(opts),
		newLayersCmd(opts),
		newStatsCmd(opts),
		newExportCmd(opts),
		newSessionCmd(opts),
	)
	return root
}

// load поднимает MapUseCase над файлом набора точек
func (o *options) load(ctx context.Context) (*usecase.MapUseCase, error) {
	log, err := logger.NewStderr(o.logLevel)
	if err != nil {
		return nil, err
	}

	clusterOpts := clustering.DefaultOptions()
	clusterOpts.Radius = o.radius
	clusterOpts.MaxZoom = o.maxZoom

	uc := usecase.NewMapUseCase(
		file.NewPointRepository(o.dataset, log),
		nil, nil,
		clusterOpts,
		layers.DefaultConfig(),
		0,
		log,
	)
	if err := uc.Load(ctx); err != nil {
		return nil, err
	}
	return uc, nil
}

func (o *options) print(cmd *cobra.Command, v interface{}) error {
	var (
		output []byte
		err    error
	)
	if o.useYAML {
		output, err = yaml.Marshal(v)
	} else {
		output, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return err
}

func newClustersCmd(opts *options) *cobra.Command {
	var bbox []float64
	cmd := &cobra.Command{
		Use:   "clusters ZOOM",
		Short: "List clusters and points at a zoom level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zoom, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid zoom %q: %w", args[0], err)
			}
			if len(bbox) != 4 {
				return fmt.Errorf("bbox must have 4 values, got %d", len(bbox))
			}

			uc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			result, err := uc.Clusters(cmd.Context(), dto.ClustersRequest{
				West: bbox[0], South: bbox[1], East: bbox[2], North: bbox[3], Zoom: zoom,
			})
			if err != nil {
				return err
			}
			return opts.print(cmd, result)
		},
	}
	cmd.Flags().Float64SliceVar(&bbox, "bbox", []float64{-180, -90, 180, 90}, "west,south,east,north")
	return cmd
}

func newLeavesCmd(opts *options) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "leaves CLUSTER_ID",
		Short: "List original points of a cluster",
		Long:  "CLUSTER_ID comes from the clusters command run over the same dataset and flags.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid cluster id %q: %w", args[0], err)
			}
			uc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			result, err := uc.Leaves(cmd.Context(), dto.LeavesRequest{ClusterID: id, Limit: limit, Offset: offset})
			if err != nil {
				return err
			}
			return opts.print(cmd, result)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size (0 - all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset")
	return cmd
}

func newHiddenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hidden ZOOM",
		Short: "Print names of points hidden inside clusters at a zoom level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zoom, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid zoom %q: %w", args[0], err)
			}
			uc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			result, err := uc.HiddenNames(cmd.Context(), dto.HiddenNamesRequest{Zoom: zoom})
			if err != nil {
				return err
			}
			return opts.print(cmd, result)
		},
	}
}

func newLayersCmd(opts *options) *cobra.Command {
	var (
		lon, lat, zoom float64
		width, height  int
	)
	cmd := &cobra.Command{
		Use:   "layers",
		Short: "Compose render layers for a viewport",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			result, err := uc.Layers(cmd.Context(), dto.LayersRequest{
				Viewport: domain.ViewportState{
					Longitude: lon,
					Latitude:  lat,
					Zoom:      zoom,
					Width:     width,
					Height:    height,
				},
			})
			if err != nil {
				return err
			}
			return opts.print(cmd, result)
		},
	}
	cmd.Flags().Float64Var(&lon, "lon", 0, "Viewport center longitude")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Viewport center latitude")
	cmd.Flags().Float64VarP(&zoom, "zoom", "z", 3, "Viewport zoom")
	cmd.Flags().IntVar(&width, "width", 1024, "Viewport width in pixels")
	cmd.Flags().IntVar(&height, "height", 768, "Viewport height in pixels")
	return cmd
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print dataset statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := uc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd, stats)
		},
	}
}

// export перекладывает набор в GeoJSON FeatureCollection
func newExportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Convert the dataset to a GeoJSON FeatureCollection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.NewStderr(opts.logLevel)
			if err != nil {
				return err
			}
			points, err := file.NewPointRepository(opts.dataset, log).LoadAll(cmd.Context())
			if err != nil {
				return err
			}
			raw, err := file.ToFeatureCollection(points).MarshalJSON()
			if err != nil {
				return fmt.Errorf("failed to marshal geojson: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return err
		},
	}
}
