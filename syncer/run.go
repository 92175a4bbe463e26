package syncer

import (
	"context"

	"github.com/grovetools/moonsync/errors"
	"github.com/grovetools/moonsync/shortcuts"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Lister enumerates the apps a host offers as raw table rows.
type Lister interface {
	List(ctx context.Context, host string) ([][]string, error)
}

// RunOptions configures one end-to-end synchronization.
type RunOptions struct {
	Options

	StorePath string
	Host      string
	DryRun    bool
}

// Candidate summarizes a shortcut created by a run.
type Candidate struct {
	Title         string `json:"title"`
	LaunchOptions string `json:"launch_options"`
	Icon          string `json:"icon"`
}

// Report describes what a run did, or would do on a dry run.
type Report struct {
	StorePath  string      `json:"store_path"`
	Existed    bool        `json:"existed"`
	Executable string      `json:"executable"`
	Kept       int         `json:"kept"`
	Removed    int         `json:"removed"`
	Added      []Candidate `json:"added"`
	Written    bool        `json:"written"`
}

// Runner loads the store, enumerates the host, synchronizes and writes the
// result back. Nothing is written unless every earlier step succeeded.
type Runner struct {
	FS     afero.Fs
	Lister Lister
	Logger *logrus.Entry
}

// NewRunner creates a runner on the real filesystem.
func NewRunner(lister Lister, logger *logrus.Entry) *Runner {
	return &Runner{
		FS:     afero.NewOsFs(),
		Lister: lister,
		Logger: logger,
	}
}

// Run executes the pipeline.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	log := r.Logger.WithFields(logrus.Fields{
		"store": opts.StorePath,
		"host":  opts.Host,
	})

	existing, existed, err := shortcuts.Load(r.FS, opts.StorePath)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"existed": existed, "shortcuts": len(existing)}).Debug("Loaded shortcut store")

	rows, err := r.Lister.List(ctx, opts.Host)
	if err != nil {
		if syncErr, ok := errors.As(err); ok && errors.GetStep(err) == "" {
			syncErr.WithStep(errors.StepEnumerate)
		}
		return nil, err
	}
	log.WithField("apps", len(rows)).Debug("Enumerated host apps")

	result, err := Sync(existing, rows, opts.Options)
	if err != nil {
		return nil, err
	}

	added := result[len(result)-len(rows):]
	report := &Report{
		StorePath:  opts.StorePath,
		Existed:    existed,
		Executable: opts.Executable,
		Kept:       len(result) - len(added),
		Removed:    len(existing) - (len(result) - len(added)),
	}
	for _, s := range added {
		report.Added = append(report.Added, Candidate{
			Title:         s.AppName,
			LaunchOptions: s.LaunchOptions,
			Icon:          s.Icon,
		})
	}

	if opts.DryRun {
		log.Info("Dry run, leaving shortcut store untouched")
		return report, nil
	}

	if err := shortcuts.Save(r.FS, opts.StorePath, result); err != nil {
		return nil, err
	}
	report.Written = true
	log.WithFields(logrus.Fields{
		"kept":    report.Kept,
		"removed": report.Removed,
		"added":   len(report.Added),
	}).Info("Wrote shortcut store")

	return report, nil
}
