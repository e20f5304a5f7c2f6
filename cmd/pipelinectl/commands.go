package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"media-pipeline-service/app"
	pipelineapp "media-pipeline-service/ddd/application/app"
	"media-pipeline-service/ddd/application/cqe"
	"media-pipeline-service/ddd/infrastructure/database/po"
	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/registry"
	"media-pipeline-service/pkg/repository"
)

const commandTimeout = 30 * time.Second

var configPath string

// BuildCLI pipelinectl 根命令
func BuildCLI() *cobra.Command {
	root := &cobra.Command{
		Use:           "pipelinectl",
		Short:         "Course media pipeline service and operator tools",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default resolved from CONFIG_PATH / CONFIG_ENV)")

	root.AddCommand(
		buildServeCommand(),
		buildMigrateCommand(),
		buildPublishCommand(),
		buildCaptionsCommand(),
		buildStatusCommand(),
		buildAbandonCommand(),
		buildInstancesCommand(),
	)
	return root
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return app.ResolveConfigPath()
}

func buildServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP, gRPC health and Kafka consumer service",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Run(resolvedConfigPath())
			return nil
		},
	}
}

func buildMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the pipeline tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolvedConfigPath())
			if err != nil {
				return err
			}
			if cfg.Database.Driver == "memory" {
				return fmt.Errorf("migrate requires a sql driver, got %q", cfg.Database.Driver)
			}
			db, err := repository.NewDatabase(&cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.AutoMigrate(po.AllModels()...); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables on %s\n", len(po.AllModels()), cfg.Database.Driver)
			return nil
		},
	}
}

func buildPublishCommand() *cobra.Command {
	var requestedBy string
	cmd := &cobra.Command{
		Use:   "publish <course-id>",
		Short: "Validate a course and start its transcode pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPublishApp(cmd, func(ctx context.Context, a pipelineapp.PublishApp) (interface{}, error) {
				return a.Publish(ctx, &cqe.PublishCourseCmd{CourseID: args[0], RequestedBy: requestedBy})
			})
		},
	}
	cmd.Flags().StringVar(&requestedBy, "requested-by", "pipelinectl", "operator recorded on the request")
	return cmd
}

func buildCaptionsCommand() *cobra.Command {
	var requestedBy string
	cmd := &cobra.Command{
		Use:   "captions <course-id>",
		Short: "Start caption generation for a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPublishApp(cmd, func(ctx context.Context, a pipelineapp.PublishApp) (interface{}, error) {
				return a.GenerateCaptions(ctx, &cqe.GenerateCaptionsCmd{CourseID: args[0], RequestedBy: requestedBy})
			})
		},
	}
	cmd.Flags().StringVar(&requestedBy, "requested-by", "pipelinectl", "operator recorded on the request")
	return cmd
}

func buildStatusCommand() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "status <course-id>",
		Short: "Show batch progress of a course pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPublishApp(cmd, func(ctx context.Context, a pipelineapp.PublishApp) (interface{}, error) {
				return a.GetPipelineStatus(ctx, &cqe.PipelineStatusQuery{CourseID: args[0], Kind: kind})
			})
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "transcode", "pipeline kind: transcode or caption")
	return cmd
}

func buildAbandonCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "abandon <batch-id>",
		Short: "Mark a pending batch whose launch was rejected as failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPublishApp(cmd, func(ctx context.Context, a pipelineapp.PublishApp) (interface{}, error) {
				return a.AbandonBatch(ctx, &cqe.AbandonBatchCmd{BatchID: args[0], Reason: reason})
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason stored on the batch")
	return cmd
}

func buildInstancesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "instances",
		Short: "List service instances registered in etcd",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolvedConfigPath())
			if err != nil {
				return err
			}
			client, err := registry.NewClient(cfg.Etcd)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			instances, err := registry.ListInstances(ctx, client, cfg.ServiceRegistry.ServiceName)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), instances)
		},
	}
}

// withPublishApp 初始化资源后执行一次性操作, memory驱动下状态不会保留
func withPublishApp(cmd *cobra.Command, fn func(ctx context.Context, a pipelineapp.PublishApp) (interface{}, error)) error {
	cfg, cleanup, err := app.Bootstrap(resolvedConfigPath())
	if err != nil {
		return err
	}
	defer cleanup()
	if cfg.Database.Driver == "memory" {
		logger.Warn("pipelinectl is running against the memory driver, results are not shared with the server")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	result, err := fn(ctx, pipelineapp.DefaultPublishApp())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
