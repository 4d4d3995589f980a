package main

import (
	"fmt"
	"os"

	"github.com/marcw/psync/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "psync",
		Short: "Portfolio Sync - reconcile parsed content with a relational store",
		Long: `psync is an idempotent content synchronization engine.
It takes a manifest of parsed markdown content (posts, projects, ideas,
timeline updates, resumes) and reconciles it with a relational database:
creating, updating, and deleting rows until the store mirrors the
content tree.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/psync.yaml)")
	rootCmd.PersistentFlags().String("db-type", "sqlite", "database engine (sqlite, mysql, postgresql)")
	rootCmd.PersistentFlags().String("db-path", "", "sqlite database file")
	rootCmd.PersistentFlags().String("db-host", "", "database host (mysql, postgresql)")
	rootCmd.PersistentFlags().Int("db-port", 0, "database port (0 = engine default)")
	rootCmd.PersistentFlags().String("db-user", "", "database user")
	rootCmd.PersistentFlags().String("db-password", "", "database password")
	rootCmd.PersistentFlags().String("db-name", "", "database name")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("db.type", rootCmd.PersistentFlags().Lookup("db-type"))
	viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("db-path"))
	viper.BindPFlag("db.host", rootCmd.PersistentFlags().Lookup("db-host"))
	viper.BindPFlag("db.port", rootCmd.PersistentFlags().Lookup("db-port"))
	viper.BindPFlag("db.user", rootCmd.PersistentFlags().Lookup("db-user"))
	viper.BindPFlag("db.password", rootCmd.PersistentFlags().Lookup("db-password"))
	viper.BindPFlag("db.name", rootCmd.PersistentFlags().Lookup("db-name"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in common locations
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("psync")
		viper.SetConfigType("yaml")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("PSYNC")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
