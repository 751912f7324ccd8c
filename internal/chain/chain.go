// Package chain walks a model's OTA version chain until the updater reports
// no further update.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/otawalk/otawalk/internal/model"
	"github.com/otawalk/otawalk/internal/ota"
	"github.com/otawalk/otawalk/internal/state"
	"github.com/otawalk/otawalk/internal/updater"
	"github.com/otawalk/otawalk/internal/utils"
)

// StopReason is why a walk ended.
type StopReason int

const (
	StopEmptyChain StopReason = iota
	StopQueryFailure
	StopParseFailure
	StopNoUpdate
	StopSameVersion
	StopCanceled
	StopIOFailure
	StopCycle
)

func (r StopReason) String() string {
	switch r {
	case StopEmptyChain:
		return "empty chain"
	case StopQueryFailure:
		return "query failed"
	case StopParseFailure:
		return "unparseable response"
	case StopNoUpdate:
		return "no update"
	case StopSameVersion:
		return "already latest"
	case StopCanceled:
		return "canceled"
	case StopIOFailure:
		return "state i/o failed"
	case StopCycle:
		return "version cycle"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Exhausted reports whether the walk ended because the chain has no more
// updates, as opposed to a failure.
func (r StopReason) Exhausted() bool {
	return r == StopNoUpdate || r == StopSameVersion || r == StopParseFailure
}

// ColorOS16Notice is logged for every discovered ColorOS 16 build.
const ColorOS16Notice = "ColorOS 16 build, download hint added"

// Recorder receives every discovered step. db.Database satisfies it.
type Recorder interface {
	Record(u *model.Update) error
}

// Result describes one model's walk.
type Result struct {
	Model string
	Start string
	Steps []*ota.UpdateInfo
	Stop  StopReason
	// Err is the condition that stopped the walk, if it was not a plain
	// "no more updates".
	Err error
}

// Updated reports whether at least one new version was discovered.
func (r *Result) Updated() bool {
	return len(r.Steps) > 0
}

// Latest returns the last discovered update, or nil.
func (r *Result) Latest() *ota.UpdateInfo {
	if len(r.Steps) == 0 {
		return nil
	}
	return r.Steps[len(r.Steps)-1]
}

// Walker advances version chains using a Source.
type Walker struct {
	Source updater.Source
	Policy *ota.Policy
	// Index optionally records every step.
	Index Recorder
	// Region is stored alongside indexed steps.
	Region string
	// Now returns the local time written to snapshots.
	Now func() time.Time
	// OnQuery, if set, wraps every Source query (e.g. to show a spinner).
	OnQuery func(current string, query func() (string, error)) (string, error)
}

func (w *Walker) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

func (w *Walker) query(ctx context.Context, current string) (string, error) {
	q := func() (string, error) { return w.Source.Query(ctx, current) }
	if w.OnQuery != nil {
		return w.OnQuery(current, q)
	}
	return q()
}

// Walk repeatedly queries the Source with the model's current OTA version and
// appends every newer version it reports.
//
// The returned error is non-nil only for conditions that must abort a whole
// batch: a missing updater executable or a canceled context. Every other
// condition ends the walk and is described by the Result.
func (w *Walker) Walk(ctx context.Context, m *state.Model) (*Result, error) {
	res := &Result{Model: m.Name}
	seen := make(map[string]bool)

	for {
		cur, err := m.Current()
		if err != nil {
			if errors.Is(err, state.ErrEmptyChain) {
				res.Stop = StopEmptyChain
			} else {
				res.Stop = StopIOFailure
				res.Err = err
			}
			return res, nil
		}
		if len(res.Start) == 0 {
			res.Start = cur.OTA
		}
		seen[cur.OTA] = true

		log.WithField("ota", cur.OTA).Info("Checking")

		raw, err := w.query(ctx, cur.OTA)
		if err != nil {
			res.Err = err
			switch {
			case errors.Is(err, updater.ErrExecutableNotFound):
				res.Stop = StopQueryFailure
				return res, err
			case ctx.Err() != nil:
				res.Stop = StopCanceled
				return res, ctx.Err()
			}
			res.Stop = StopQueryFailure
			return res, nil
		}

		info, err := ota.Normalize(raw, w.Policy)
		if err != nil {
			if errors.Is(err, ota.ErrParseFailure) {
				res.Stop = StopParseFailure
				log.WithError(err).Debug("treating response as no update")
			} else {
				res.Stop = StopNoUpdate
			}
			return res, nil
		}

		// the identifier is written as the head of a version file line
		if strings.ContainsAny(info.OTAVersion, "#\r\n") {
			res.Stop = StopParseFailure
			res.Err = fmt.Errorf("updater returned malformed OTA version %q", info.OTAVersion)
			return res, nil
		}

		if info.OTAVersion == cur.OTA {
			res.Stop = StopSameVersion
			return res, nil
		}
		if seen[info.OTAVersion] {
			res.Stop = StopCycle
			res.Err = fmt.Errorf("updater returned %s again after %s", info.OTAVersion, cur.OTA)
			return res, nil
		}

		if err := w.commit(m, cur.OTA, info); err != nil {
			res.Stop = StopIOFailure
			res.Err = err
			return res, nil
		}
		res.Steps = append(res.Steps, info)

		if err := ctx.Err(); err != nil {
			res.Stop = StopCanceled
			res.Err = err
			return res, err
		}
	}
}

// commit persists one discovered step.
func (w *Walker) commit(m *state.Model, prev string, info *ota.UpdateInfo) error {
	if err := m.Append(info); err != nil {
		return err
	}
	link, err := m.WriteLink(info)
	if err != nil {
		return err
	}
	if err := m.WriteSnapshot(info, w.now()); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"ota":     info.OTAVersion,
		"version": info.OSVersion,
	}).Info("Found update")
	if strings.Contains(info.OSVersion, "ColorOS 16") {
		utils.Indent(log.Info, 2)(ColorOS16Notice)
	}
	utils.Indent(log.WithField("path", link).Debug, 2)("Saved ROM link")

	if w.Index != nil {
		if err := w.Index.Record(model.NewUpdate(m.Name, prev, w.Region, info)); err != nil {
			log.WithError(err).Warn("failed to index update")
		}
	}
	return nil
}
