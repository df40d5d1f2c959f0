// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Pulse
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pulse-metrics/pulse/pkg/logger"
	"github.com/pulse-metrics/pulse/pkg/metricsystem"
	"github.com/pulse-metrics/pulse/pkg/option"
	"github.com/pulse-metrics/pulse/pkg/procstats"
	"github.com/pulse-metrics/pulse/pkg/server"
	"github.com/pulse-metrics/pulse/pkg/sinks/prom"
	"github.com/pulse-metrics/pulse/pkg/version"

	// Sink plugins selectable via sink.<name>.class.
	_ "github.com/pulse-metrics/pulse/pkg/sinks/console"
	_ "github.com/pulse-metrics/pulse/pkg/sinks/file"
	_ "github.com/pulse-metrics/pulse/pkg/sinks/kafka"
	_ "github.com/pulse-metrics/pulse/pkg/sinks/redis"
)

var (
	log = logger.GetLogger()
)

func pulseExec(cmd *cobra.Command, args []string) error {
	option.ReadAndSetFlags()
	if err := logger.SetupLogging(option.Config.LogOpts, option.Config.Debug); err != nil {
		return err
	}

	prefix := option.Config.MetricsPrefix
	sys := metricsystem.Instance()
	if sub := viper.Sub("metrics." + prefix); sub != nil {
		sys.SetConfig(sub)
	}
	sys.Init(prefix)
	defer sys.Shutdown()

	if _, err := sys.RegisterSource("process", "Go process statistics", procstats.New()); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	introspection := server.New(sys, option.Config.ServerAddress)
	g.Go(introspection.ListenAndServe)

	var promSrv *http.Server
	if option.Config.EnableProm {
		bridge := prom.New()
		if err := sys.RegisterSink("prometheus", "Prometheus bridge sink", bridge); err != nil {
			return err
		}
		reg := prometheus.NewRegistry()
		reg.MustRegister(bridge)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		promSrv = &http.Server{Addr: option.Config.PromAddress, Handler: mux}
		g.Go(func() error {
			log.WithField("addr", option.Config.PromAddress).Info("Starting prometheus endpoint")
			if err := promSrv.ListenAndServe(); err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		introspection.WaitShutdown(5 * time.Second)
		if promSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			promSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	log.WithField("prefix", prefix).Info("Pulse agent up")
	return g.Wait()
}

func execute() error {
	rootCmd := &cobra.Command{
		Use:   "pulse",
		Short: "Pulse metrics agent",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			readConfigSettings()
		},
		RunE: pulseExec,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s version: %s\n", version.Name, version.Version)
			version.ReadBuildInfo().Print()
		},
	})

	flags := rootCmd.PersistentFlags()
	option.AddFlags(flags)
	viper.BindPFlags(flags)
	return rootCmd.Execute()
}

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}
