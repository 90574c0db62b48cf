package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"park-ops/internal/config"
	"park-ops/internal/kafka"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newAuditCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read the change history",
	}
	cmd.AddCommand(newAuditHistoryCommand(opts))
	cmd.AddCommand(newAuditTailCommand(opts))
	cmd.AddCommand(newAuditTopicsCommand(opts))
	return cmd
}

func newAuditHistoryCommand(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent history records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := opts.open(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()

			records, err := s.History.Recent(ctx, limit)
			if err != nil {
				return err
			}

			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"Time", "User", "Action", "Details"})
			for _, r := range records {
				tbl.AppendRow(table.Row{r.Timestamp.Local().Format(time.DateTime), r.User, r.Action, r.Details})
			}
			tbl.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of records")
	return cmd
}

// newAuditTailCommand follows the history topic until interrupted.
func newAuditTailCommand(opts *globalOptions) *cobra.Command {
	var topic, group string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow history events published to Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topic, group, opts.logger(cmd.ErrOrStderr()))
			defer consumer.Close()

			out := cmd.OutOrStdout()
			stamp := color.New(color.FgCyan).SprintFunc()
			key := color.New(color.FgYellow).SprintFunc()
			return consumer.Start(ctx, func(e kafka.Event) error {
				var pretty bytes.Buffer
				if err := json.Indent(&pretty, e.Value, "", "  "); err != nil {
					pretty.Reset()
					pretty.Write(e.Value)
				}
				fmt.Fprintf(out, "%s %s\n%s\n", stamp(e.Time.Format("15:04:05")), key(e.Key), pretty.String())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", kafka.TopicHistoryAppended, "topic to follow")
	cmd.Flags().StringVarP(&group, "group", "g", "", "consumer group (default reads from the newest offset)")
	return cmd
}

func newAuditTopicsCommand(_ *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List the topics on the configured brokers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			topics, err := kafka.ListTopics(cmd.Context(), config.Load().Kafka.Brokers)
			if err != nil {
				return err
			}
			for _, t := range topics {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}
