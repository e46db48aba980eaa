// Package admin provides operator commands that work directly against the
// shared Redis store: listing and following abuse alerts, and clearing limits.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	appratelimit "github.com/campusportal/admission/internal/application/ratelimit"
	"github.com/campusportal/admission/internal/application/ratelimit/dto"
	"github.com/campusportal/admission/internal/application/ratelimit/usecases"
	domain "github.com/campusportal/admission/internal/domain/ratelimit"
	"github.com/campusportal/admission/internal/infrastructure/cache"
	"github.com/campusportal/admission/internal/infrastructure/config"
	"github.com/campusportal/admission/internal/infrastructure/pubsub"
	infraratelimit "github.com/campusportal/admission/internal/infrastructure/ratelimit"
	"github.com/campusportal/admission/internal/shared/logger"
)

const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

type options struct {
	env        string
	configPath string
	output     string
}

// runtime is the set of components an admin command works with.
type runtime struct {
	client  *redis.Client
	service *appratelimit.AdminService
	bus     *pubsub.RedisAbuseAlertBus
	log     logger.Interface
}

func (r *runtime) Close() {
	_ = r.client.Close()
}

func newRuntime(cfg *config.Config, client *redis.Client, log logger.Interface) *runtime {
	alertStore := cache.NewAbuseAlertStore(client, cfg.Abuse.ListCapacity, cfg.Abuse.TTL(), log)
	clearUC := usecases.NewClearRateLimitUseCase(
		infraratelimit.NewRedisStore(client),
		infraratelimit.NewLocalStore(),
		cache.NewAlertDeduplicator(client),
		log,
	)

	return &runtime{
		client:  client,
		service: appratelimit.NewAdminService(usecases.NewListAbuseAlertsUseCase(alertStore, log), clearUC),
		bus:     pubsub.NewRedisAbuseAlertBus(client, cfg.Abuse.Channel, log),
		log:     log,
	}
}

func (o *options) load() (*runtime, error) {
	var searchPaths []string
	if o.configPath != "" {
		searchPaths = append(searchPaths, o.configPath)
	}
	cfg, err := config.Load(o.env, searchPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Command output goes to stdout; logs stay on stderr.
	cfg.Logger.OutputPath = "stderr"
	if err := logger.Init(&cfg.Logger, false); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	client, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return newRuntime(cfg, client, logger.WithComponent("admin-cli")), nil
}

func (o *options) bindFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&o.env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "Directory containing config.yaml")
	cmd.PersistentFlags().StringVarP(&o.output, "output", "o", OutputTable, "Output format (table, json, yaml)")
}

// NewAlertsCommand returns the "alerts" command group.
func NewAlertsCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Inspect abuse alerts",
	}
	opts.bindFlags(cmd)

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent abuse alerts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			defer rt.Close()

			resp := rt.service.ListRecentAbuseAlerts(cmd.Context(), limit)
			return writeAlerts(cmd.OutOrStdout(), opts.output, resp)
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", usecases.DefaultAlertListLimit, "Maximum number of alerts to show")

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Follow abuse alerts as they are raised",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt.log.Infow("watching abuse alerts", "channel", rt.bus.Channel())
			return watchAlerts(ctx, rt.bus, cmd.OutOrStdout(), opts.output)
		},
	}

	cmd.AddCommand(list, watch)
	return cmd
}

// NewLimitsCommand returns the "limits" command group.
func NewLimitsCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Manage rate limit windows",
	}
	opts.bindFlags(cmd)

	var endpoint string
	clearCmd := &cobra.Command{
		Use:   "clear <identifier>",
		Short: "Reset the windows of an identity (user:<id> or ip:<address>)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load()
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.service.ClearLimit(cmd.Context(), args[0], endpoint)
			if err != nil {
				return err
			}
			return writeClearResult(cmd.OutOrStdout(), opts.output, result)
		},
	}
	clearCmd.Flags().StringVar(&endpoint, "endpoint", "", "Only reset this endpoint (default: all endpoints)")

	cmd.AddCommand(clearCmd)
	return cmd
}

// alertSource is the subscription side of the alert bus.
type alertSource interface {
	Subscribe(ctx context.Context, handler pubsub.AbuseAlertHandler) error
}

// watchAlerts prints every published alert until ctx is cancelled.
func watchAlerts(ctx context.Context, source alertSource, w io.Writer, format string) error {
	err := source.Subscribe(ctx, func(_ context.Context, alert domain.AbuseAlert) {
		resp := dto.ToAbuseAlertListResponse([]domain.AbuseAlert{alert})
		if format == OutputTable {
			writeAlertRows(w, resp.Alerts, false)
			return
		}
		_ = writeStructured(w, format, resp.Alerts[0])
	})
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func writeAlerts(w io.Writer, format string, resp *dto.AbuseAlertListResponse) error {
	switch format {
	case OutputTable:
		if resp.Count == 0 {
			_, err := fmt.Fprintln(w, "no abuse alerts")
			return err
		}
		writeAlertRows(w, resp.Alerts, true)
		return nil
	default:
		return writeStructured(w, format, resp)
	}
}

func writeAlertRows(w io.Writer, alerts []dto.AbuseAlertDTO, header bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if header {
		fmt.Fprintln(tw, "TIME\tSEVERITY\tIDENTIFIER\tENDPOINT\tREQUESTS\tLIMIT")
	}
	for _, a := range alerts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			a.Timestamp.UTC().Format(time.RFC3339),
			strings.ToUpper(a.Severity),
			a.Identifier,
			a.Endpoint,
			a.Requests,
			a.Limit,
		)
	}
	_ = tw.Flush()
}

func writeClearResult(w io.Writer, format string, result *dto.ClearRateLimitResult) error {
	if format != OutputTable {
		return writeStructured(w, format, result)
	}

	scope := result.Endpoint
	if scope == "" {
		scope = "all endpoints"
	}
	_, err := fmt.Fprintf(w, "cleared %s (%s): %d distributed keys, %d local keys, %d alert cooldowns\n",
		result.Identifier, scope, result.DistributedKeys, result.LocalKeys, result.CooldownsCleared)
	return err
}

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
