package main

import (
	"fmt"
	"os"

	"github.com/marcw/psync/internal/content"
	"github.com/marcw/psync/internal/store"
	"github.com/marcw/psync/internal/syncer"
	"github.com/marcw/psync/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the configuration and database",
	Long: `Run diagnostic checks to ensure psync can operate correctly.

This command checks:
- Database configuration validity
- Database connectivity
- Schema presence (baseline tables)
- Owner account presence
- Manifest readability (when --manifest is given)

Use this command to troubleshoot issues before running a sync.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	// Doctor-specific flags
	doctorCmd.Flags().String("manifest", "", "manifest file to check (optional)")
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	util.InfoLog("=== psync Doctor - System Diagnostics ===")
	util.InfoLog("")

	results := []checkResult{}

	// 1. Check database configuration
	cfg := store.FromViper()
	configCheck, cfgOK := checkDBConfig(&cfg)
	results = append(results, configCheck)

	// 2. Check connectivity and schema
	if cfgOK {
		results = append(results, checkConnection(cfg)...)
	}

	// 3. Check manifest
	manifestPath, _ := cmd.Flags().GetString("manifest")
	if manifestPath != "" {
		results = append(results, checkManifest(manifestPath))
	}

	// Print results
	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	// Summary
	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before syncing.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("✅ All checks passed! Ready to sync.")
	}

	return nil
}

// checkDBConfig validates the database descriptor.
func checkDBConfig(cfg *store.Config) (checkResult, bool) {
	if err := cfg.Validate(); err != nil {
		return checkResult{
			name:    "Database config",
			error:   true,
			message: err.Error(),
		}, false
	}
	return checkResult{
		name:    "Database config",
		message: describeTarget(*cfg),
	}, true
}

// checkConnection opens the store and inspects schema and owner state.
func checkConnection(cfg store.Config) []checkResult {
	s, err := store.Open(cfg)
	if err != nil {
		return []checkResult{{
			name:    "Database connection",
			error:   true,
			message: err.Error(),
		}}
	}
	defer s.Close()

	results := []checkResult{{
		name:    "Database connection",
		message: "connected",
	}}

	if !s.HasBaselineTable() {
		results = append(results, checkResult{
			name:    "Schema",
			warning: true,
			message: "baseline tables missing (created automatically on first sync)",
		})
		return results
	}
	results = append(results, checkResult{name: "Schema", message: "baseline tables present"})

	owner := syncer.OwnerFromViper()
	owner.ApplyDefaults()
	var user store.User
	if err := s.DB().Where("username = ?", owner.Username).First(&user).Error; err != nil {
		results = append(results, checkResult{
			name:    "Owner account",
			warning: true,
			message: fmt.Sprintf("%q not found (created on first sync)", owner.Username),
		})
	} else {
		results = append(results, checkResult{
			name:    "Owner account",
			message: fmt.Sprintf("%q (id %d)", user.Username, user.ID),
		})
	}

	return results
}

// checkManifest verifies the manifest file parses.
func checkManifest(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		return checkResult{
			name:    "Manifest",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}
	if info.IsDir() {
		return checkResult{
			name:    "Manifest",
			error:   true,
			message: fmt.Sprintf("%s is a directory", path),
		}
	}

	manifest, err := content.LoadManifest(path)
	if err != nil {
		return checkResult{
			name:    "Manifest",
			error:   true,
			message: err.Error(),
		}
	}

	unknown := 0
	for _, item := range manifest.Items {
		if syncer.MapperFor(item.Type) == nil {
			unknown++
		}
	}
	if unknown > 0 {
		return checkResult{
			name:    "Manifest",
			warning: true,
			message: fmt.Sprintf("%s (%d items, %d with unknown types)", path, len(manifest.Items), unknown),
		}
	}

	return checkResult{
		name:    "Manifest",
		message: fmt.Sprintf("%s (%d items)", path, len(manifest.Items)),
	}
}
