/*
Copyright © 2026 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/caarlos0/ctrlc"
	"github.com/otawalk/otawalk/internal/colors"
	"github.com/otawalk/otawalk/internal/commands/walk"
	"github.com/otawalk/otawalk/internal/config"
	"github.com/otawalk/otawalk/internal/db"
	"github.com/otawalk/otawalk/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

func init() {
	rootCmd.AddCommand(walkCmd)

	walkCmd.Flags().String("links-dir", "links", "Folder to write ROM link files to")
	walkCmd.Flags().String("region", "CN", "Updater region code")
	walkCmd.Flags().String("mode", config.ModeManual, "Updater mode ('manual' or a numeric mode)")
	walkCmd.Flags().StringP("proxy", "p", "", "HTTP/SOCKS proxy passed to the updater")
	walkCmd.Flags().String("updater", "./updater", "Path to the updater executable")
	walkCmd.Flags().Duration("timeout", 0, "Timeout for a single updater query (default 1m0s)")
	walkCmd.Flags().String("prefer", "my_manifest", "Component whose ROM link is preferred")
	walkCmd.Flags().StringSliceP("model", "m", []string{}, "Only walk these model folders")
	walkCmd.Flags().String("db", "", "Record discovered updates in this database file")
	walkCmd.Flags().String("db-driver", "", "Update index driver (memory, sqlite or postgres)")
	walkCmd.Flags().Bool("no-spinner", false, "Do not show a spinner while querying")
	walkCmd.MarkFlagDirname("links-dir")
	walkCmd.MarkFlagFilename("updater")
	viper.BindPFlag("links-dir", walkCmd.Flags().Lookup("links-dir"))
	viper.BindPFlag("updater.region", walkCmd.Flags().Lookup("region"))
	viper.BindPFlag("updater.mode", walkCmd.Flags().Lookup("mode"))
	viper.BindPFlag("updater.proxy", walkCmd.Flags().Lookup("proxy"))
	viper.BindPFlag("updater.path", walkCmd.Flags().Lookup("updater"))
	viper.BindPFlag("normalize.prefer", walkCmd.Flags().Lookup("prefer"))
	viper.BindPFlag("walk.model", walkCmd.Flags().Lookup("model"))
	viper.BindPFlag("walk.no-spinner", walkCmd.Flags().Lookup("no-spinner"))
}

// walkCmd represents the walk command
var walkCmd = &cobra.Command{
	Use:   "walk [MODELS_DIR]",
	Short: "Discover new OTA versions for every model folder",
	Example: heredoc.Doc(`
		# Walk every folder in ./models using ./updater
		❯ otawalk walk

		# Walk two models in India through a proxy
		❯ otawalk walk /srv/ota/models --links_dir /srv/ota/links --region IN -m CPH2581 -m RMX3888 -p http://127.0.0.1:7890

		# Also record every step in a sqlite database
		❯ otawalk walk --db otawalk.db`),
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			viper.Set("models-dir", filepath.Clean(args[0]))
		}
		if cmd.Flags().Changed("timeout") {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			viper.Set("updater.timeout", timeout)
		}
		indexFlags(cmd)

		conf, err := config.LoadConfig()
		if err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"models": conf.ModelsDir,
			"links":  conf.LinksDir,
		}).Info("Starting batch update")
		utils.Indent(log.WithFields(log.Fields{
			"region": conf.Updater.Region,
			"mode":   conf.Updater.Mode,
			"proxy":  orNone(conf.Updater.Proxy),
		}).Info, 2)("Updater settings")

		wconf := &walk.Config{
			ModelsDir: conf.ModelsDir,
			LinksDir:  conf.LinksDir,
			Models:    viper.GetStringSlice("walk.model"),
			Source:    conf.Source(),
			Policy:    conf.Policy(),
			Region:    conf.Updater.Region,
			Spinner:   !viper.GetBool("walk.no-spinner") && !viper.GetBool("verbose") && term.IsTerminal(int(os.Stderr.Fd())),
		}

		if conf.Database.Enabled() {
			index, err := db.Open(conf.Database)
			if err != nil {
				return fmt.Errorf("failed to open update index: %v", err)
			}
			defer index.Close()
			wconf.Index = index
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var summary *walk.Summary
		if err := ctrlc.Default.Run(ctx, func() error {
			var runErr error
			summary, runErr = walk.Run(ctx, wconf)
			return runErr
		}); err != nil {
			cancel()
			return err
		}

		printSummary(summary)

		return nil
	},
}

// indexFlags moves --db/--db-driver into the database config.
func indexFlags(cmd *cobra.Command) {
	dbPath, _ := cmd.Flags().GetString("db")
	driver, _ := cmd.Flags().GetString("db-driver")
	if len(dbPath) > 0 {
		viper.Set("database.path", dbPath)
		if len(driver) == 0 {
			driver = "sqlite"
		}
	}
	if len(driver) > 0 {
		viper.Set("database.driver", driver)
	}
}

func orNone(s string) string {
	if len(s) == 0 {
		return "none"
	}
	return s
}

func printSummary(summary *walk.Summary) {
	log.WithFields(log.Fields{
		"models":  len(summary.Results),
		"updated": summary.Updated(),
		"skipped": len(summary.Skipped),
	}).Info(colors.BoldGreen().Sprint("Done"))
	for _, r := range summary.Results {
		if r.Updated() {
			var versions []string
			for _, s := range r.Steps {
				versions = append(versions, s.OSVersion)
			}
			utils.Indent(log.WithField("versions", strings.Join(versions, ", ")).Info, 2)(r.Model)
		}
	}
	for _, r := range summary.Failed() {
		utils.Indent(log.WithError(r.Err).Warn, 2)(fmt.Sprintf("%s: %s", r.Model, r.Stop))
	}
}
