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
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/otawalk/otawalk/internal/colors"
	"github.com/otawalk/otawalk/internal/config"
	"github.com/otawalk/otawalk/internal/db"
	"github.com/otawalk/otawalk/internal/model"
	"github.com/otawalk/otawalk/internal/ota"
	"github.com/otawalk/otawalk/internal/state"
	"github.com/otawalk/otawalk/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var colorOTA = colors.Bold().SprintFunc()
var colorLabel = colors.HiCyan().SprintFunc()
var colorLink = colors.HiMagenta().SprintFunc()
var colorTime = colors.Faint().SprintFunc()

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().String("models-dir", "models", "Folder containing the model folders")
	historyCmd.Flags().BoolP("snapshot", "s", false, "Also print each model's latest update summary")
	historyCmd.Flags().String("db", "", "Read the history from this database file instead")
	historyCmd.Flags().String("db-driver", "", "Update index driver (memory, sqlite or postgres)")
	historyCmd.Flags().Bool("json", false, "Output as JSON")
	historyCmd.MarkFlagDirname("models-dir")
	viper.BindPFlag("history.models-dir", historyCmd.Flags().Lookup("models-dir"))
	viper.BindPFlag("history.snapshot", historyCmd.Flags().Lookup("snapshot"))
	viper.BindPFlag("history.json", historyCmd.Flags().Lookup("json"))
}

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:     "history [MODEL...]",
	Aliases: []string{"h", "ls"},
	Short:   "List the discovered OTA versions of each model",
	Example: heredoc.Doc(`
		# Show the version chain of every model in ./models
		❯ otawalk history

		# Show one model with its latest update summary
		❯ otawalk history PJZ110 --snapshot

		# Show what was recorded in the update index
		❯ otawalk history --db otawalk.db`),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("models-dir") {
			viper.Set("models-dir", viper.GetString("history.models-dir"))
		}
		indexFlags(cmd)

		conf, err := config.LoadConfig()
		if err != nil {
			return err
		}

		if conf.Database.Enabled() {
			return indexHistory(conf.Database, args)
		}
		return fileHistory(conf.ModelsDir, args)
	},
}

type modelHistory struct {
	Model    string        `json:"model"`
	Versions []state.Entry `json:"versions"`
	Snapshot string        `json:"snapshot,omitempty"`
}

func fileHistory(modelsDir string, models []string) error {
	dirs, err := utils.SubDirs(modelsDir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %v", modelsDir, err)
	}

	var histories []modelHistory
	for _, dir := range dirs {
		if len(models) > 0 && !utils.StrSliceHas(models, filepath.Base(dir)) {
			continue
		}
		m, err := state.Open(dir, "")
		if err != nil {
			continue
		}
		h := modelHistory{Model: m.Name}
		if h.Versions, err = m.History(); err != nil {
			return err
		}
		if viper.GetBool("history.snapshot") {
			if h.Snapshot, err = m.Snapshot(); err != nil {
				return err
			}
		}
		histories = append(histories, h)
	}

	if viper.GetBool("history.json") {
		dat, err := json.MarshalIndent(histories, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %v", err)
		}
		fmt.Println(string(dat))
		return nil
	}

	for _, h := range histories {
		fmt.Printf("%s (%d)\n", colors.BoldBlue().Sprint(h.Model), len(h.Versions))
		for i, v := range h.Versions {
			marker := " "
			if i == len(h.Versions)-1 {
				marker = colors.Green().Sprint("*")
			}
			fmt.Printf("  %s %s%s%s\n", marker, colorOTA(v.OTA), utils.Pad(2), colorLabel(v.Label))
		}
		if len(h.Snapshot) > 0 {
			fmt.Println()
			fmt.Println(h.Snapshot)
		}
	}
	return nil
}

func indexHistory(conf db.Config, models []string) error {
	index, err := db.Open(conf)
	if err != nil {
		return fmt.Errorf("failed to open update index: %v", err)
	}
	defer index.Close()

	var updates []*model.Update
	if len(models) == 0 {
		if updates, err = index.List(""); err != nil {
			return err
		}
	}
	for _, m := range models {
		us, err := index.List(m)
		if err != nil {
			return err
		}
		updates = append(updates, us...)
	}

	if viper.GetBool("history.json") {
		dat, err := json.MarshalIndent(updates, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %v", err)
		}
		fmt.Println(string(dat))
		return nil
	}

	var device string
	for _, u := range updates {
		if u.Device != device {
			device = u.Device
			fmt.Println(colors.BoldBlue().Sprint(device))
		}
		fmt.Printf("  %s %s  %s\n", colorOTA(u.OTAVersion), colorLabel(u.OSVersion), colorTime(published(u.PublishedTime)))
		fmt.Printf("    %s\n", colorLink(u.ROMLink))
	}
	return nil
}

// published renders an UpdateInfo publish time relative to now.
func published(s string) string {
	t, err := time.ParseInLocation(ota.TimeLayout, s, time.Local)
	if err != nil {
		return s
	}
	return fmt.Sprintf("published %s", humanize.Time(t))
}
