package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/user/policyrisk/pkg/adk"
	"github.com/user/policyrisk/pkg/config"
	"github.com/user/policyrisk/pkg/engine"
	"github.com/user/policyrisk/pkg/server"
)

var (
	serveFlags  = analysisFlags{overlap: -1}
	listenAddr  string
	staticDir   string
	maxUploadMB int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the document upload endpoint over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("error loading config: %v", err)
		}
		opts, err := serveFlags.options(cfg)
		if err != nil {
			return err
		}
		store, err := engine.NewRuleStore(serveFlags.rulesDirOr(cfg))
		if err != nil {
			return fmt.Errorf("error loading rules: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := store.Watch(ctx); err != nil {
			return fmt.Errorf("error watching rules: %v", err)
		}

		analyzer, cleanup, err := buildAnalyzer(ctx, cfg, opts, store, serveFlags.offline)
		if err != nil {
			return err
		}
		defer cleanup()

		srv := &server.Server{
			Analyzer:       analyzer,
			MaxUploadBytes: maxUploadMB << 20,
			StaticDir:      staticDir,
		}
		adk.Infof("Listening on %s (%d rules loaded)", listenAddr, len(store.Current().Rules))
		return srv.ListenAndServe(ctx, listenAddr)
	},
}

func init() {
	addAnalysisFlags(serveCmd, &serveFlags)
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&staticDir, "static", "", "Directory of static files served at /")
	serveCmd.Flags().Int64Var(&maxUploadMB, "max-upload-mb", 10, "Maximum upload size in MiB")
	rootCmd.AddCommand(serveCmd)
}
