// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// A userland host for a BeOS/Haiku file-system driver.
//
// Usage:
//
//	userlandfs-server [flags] <driver-name> [port]
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/userlandfs/server/internal/blockcache"
	"github.com/userlandfs/server/internal/config"
	"github.com/userlandfs/server/internal/logger"
	"github.com/userlandfs/server/internal/serverhost"
	"github.com/userlandfs/server/internal/volume"
)

var (
	cfgFile       string
	bindErr       error
	configFileErr error
)

var rootCmd = &cobra.Command{
	Use:   "userlandfs-server [flags] <driver-name> [port]",
	Short: "Host a file-system driver out of process and serve kernel VFS requests",
	Long: `userlandfs-server loads a registered driver by name, initializes its
block cache and worker pool, and registers with the dispatcher so the
kernel can route mount/read/write requests to it.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if configFileErr != nil {
			return configFileErr
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.DriverName = args[0]
		if len(args) == 2 {
			port, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parsing port %q: %w", args[1], err)
			}
			cfg.Port = port
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}
		return runServer(cfg)
	},
}

func runServer(cfg config.Config) error {
	if err := logger.Init(logger.Config{
		FilePath:        cfg.Logging.FilePath,
		Severity:        cfg.Logging.Severity,
		Format:          cfg.Logging.Format,
		LogRotateConfig: cfg.Logging.LogRotateConfig,
	}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	d, ok := volume.Lookup(cfg.DriverName)
	if !ok {
		return &volume.UnknownDriverError{DriverName: cfg.DriverName}
	}
	var backend blockcache.Backend
	if d.NewBackend != nil {
		backend = d.NewBackend()
	}

	srv, err := serverhost.New(cfg, cfg.DriverName, d.Factory, backend)
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}
	registry := serverhost.NewDefaultRegistry(cfg)
	defer registry.Stop()

	if err := srv.Start(registry); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	if cfg.Debug {
		logger.Infof("--debug set; dropping into the debugger is not implemented, continuing instead")
	}

	registerShutdownHandler(cfg.DriverName, srv)
	select {}
}

func registerShutdownHandler(driverName string, srv *serverhost.Server) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)

	go func() {
		<-signalChan
		logger.Infof("received interrupt, stopping driver %s", driverName)
		srv.Stop()
		os.Exit(0)
	}()
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "path to a YAML config file")
	bindErr = config.BindFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	if drivers := knownDrivers(); drivers != "" {
		rootCmd.Long += "\n\nRegistered drivers: " + drivers
	}
	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		configFileErr = fmt.Errorf("reading config file %q: %w", cfgFile, err)
	}
}

// knownDrivers is used by --help text listing what's registered, via
// strings.Join so an empty registry prints cleanly rather than "[]".
func knownDrivers() string {
	return strings.Join(volume.Drivers(), ", ")
}
