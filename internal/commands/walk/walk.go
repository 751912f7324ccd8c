// Package walk runs the chain walker over every model folder beneath a root
// directory.
package walk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/briandowns/spinner"
	"github.com/otawalk/otawalk/internal/chain"
	"github.com/otawalk/otawalk/internal/colors"
	"github.com/otawalk/otawalk/internal/ota"
	"github.com/otawalk/otawalk/internal/state"
	"github.com/otawalk/otawalk/internal/updater"
	"github.com/otawalk/otawalk/internal/utils"
)

// Config is the config for a batch walk.
type Config struct {
	ModelsDir string
	LinksDir  string
	// Models restricts the walk to the named model folders.
	Models []string
	Source updater.Source
	Policy *ota.Policy
	Index  chain.Recorder
	Region string
	// Spinner shows a spinner while the updater is running.
	Spinner bool
}

// Summary collects the results of a batch walk.
type Summary struct {
	Results []*chain.Result
	Skipped []string
}

// Updated returns the number of models that advanced.
func (s *Summary) Updated() int {
	var n int
	for _, r := range s.Results {
		if r.Updated() {
			n++
		}
	}
	return n
}

// Failed returns the results that stopped on an error.
func (s *Summary) Failed() []*chain.Result {
	var failed []*chain.Result
	for _, r := range s.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

type pathLooker interface {
	LookPath() (string, error)
}

// Run walks every model folder in sorted order.
//
// A model whose walk fails only stops that model. Run returns an error only if
// the models directory is missing, the updater executable cannot be found, or
// ctx is canceled.
func Run(ctx context.Context, conf *Config) (*Summary, error) {
	fi, err := os.Stat(conf.ModelsDir)
	if err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("directory %s does not exist", conf.ModelsDir)
	}

	if pl, ok := conf.Source.(pathLooker); ok {
		path, err := pl.LookPath()
		if err != nil {
			return nil, err
		}
		log.WithField("path", path).Debug("Using updater")
	}

	if err := os.MkdirAll(conf.LinksDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create links directory %s: %v", conf.LinksDir, err)
	}

	dirs, err := modelDirs(conf)
	if err != nil {
		return nil, err
	}

	w := &chain.Walker{
		Source: conf.Source,
		Policy: conf.Policy,
		Index:  conf.Index,
		Region: conf.Region,
	}
	if conf.Spinner {
		w.OnQuery = withSpinner
	}

	summary := &Summary{}
	for _, dir := range dirs {
		m, err := state.Open(dir, conf.LinksDir)
		if err != nil {
			if errors.Is(err, state.ErrNoVersionFile) {
				log.WithField("model", filepath.Base(dir)).Warnf("Skipping: %v", err)
				summary.Skipped = append(summary.Skipped, filepath.Base(dir))
				continue
			}
			log.WithField("model", filepath.Base(dir)).WithError(err).Error("Skipping")
			summary.Skipped = append(summary.Skipped, filepath.Base(dir))
			continue
		}

		log.WithFields(log.Fields{
			"model": m.Name,
			"links": m.LinksDir,
		}).Info(colors.Bold().Sprint("Processing"))

		res, err := w.Walk(ctx, m)
		if res != nil {
			summary.Results = append(summary.Results, res)
			report(res)
		}
		if err != nil {
			return summary, err
		}
	}

	return summary, nil
}

func modelDirs(conf *Config) ([]string, error) {
	dirs, err := utils.SubDirs(conf.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", conf.ModelsDir, err)
	}
	if len(conf.Models) == 0 {
		return dirs, nil
	}
	var filtered []string
	for _, dir := range dirs {
		if utils.StrSliceHas(conf.Models, filepath.Base(dir)) {
			filtered = append(filtered, dir)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no model folders in %s match %v", conf.ModelsDir, conf.Models)
	}
	return filtered, nil
}

func report(res *chain.Result) {
	l := log.WithField("model", res.Model)
	switch {
	case res.Stop == chain.StopEmptyChain:
		l.Warn(colors.Yellow().Sprintf("%s is empty, stopping", state.VersionFile))
	case res.Err != nil && !res.Stop.Exhausted():
		l.WithError(res.Err).Error(colors.Red().Sprintf("Stopped: %s", res.Stop))
	case res.Updated():
		l.WithField("latest", res.Latest().String()).Info(colors.Green().Sprintf("Found %d new version(s)", len(res.Steps)))
	default:
		l.WithField("current", res.Start).Info(colors.Faint().Sprint("No new versions"))
	}
}

func withSpinner(current string, query func() (string, error)) (string, error) {
	s := spinner.New(spinner.CharSets[38], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Prefix = colors.Blue().Sprintf("   • Querying %s ", current)
	s.Start()
	defer s.Stop()
	return query()
}
