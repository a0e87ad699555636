package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// getResultFolder returns <results>/<strategy>[/<start>_<end>]/<data file>.
func getResultFolder(resultsFolder string, config BacktestEngineV1Config, dataPath string, strategyName string) string {
	strategyFolder := filepath.Join(resultsFolder, sanitizeName(strategyName))

	var dataFolder string

	if config.StartTime.IsSome() || config.EndTime.IsSome() {
		startTimeStr := "all"
		endTimeStr := "all"

		if config.StartTime.IsSome() {
			startTimeStr = config.StartTime.Unwrap().Format("20060102")
		}

		if config.EndTime.IsSome() {
			endTimeStr = config.EndTime.Unwrap().Format("20060102")
		}

		dataFolder = filepath.Join(strategyFolder, fmt.Sprintf("%s_%s", startTimeStr, endTimeStr))
	} else {
		dataFolder = strategyFolder
	}

	dataFileName := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))

	return filepath.Join(dataFolder, dataFileName)
}

// sanitizeName makes a strategy name safe to use as a folder name.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', '#', ':':
			return '_'
		default:
			return r
		}
	}, name)
}

// uniqueNames suffixes repeated names with _2, _3 and so on.
func uniqueNames(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))

	for i, name := range names {
		seen[name]++
		if n := seen[name]; n > 1 {
			out[i] = fmt.Sprintf("%s_%d", name, n)
		} else {
			out[i] = name
		}
	}

	return out
}

// checkResultsFolder refuses a results folder that holds one of the data files,
// since clearing it would destroy the input.
func checkResultsFolder(resultsFolder string, dataPaths []string) error {
	root, err := filepath.Abs(resultsFolder)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid results folder %s", resultsFolder)
	}

	for _, dataPath := range dataPaths {
		rel, err := filepath.Rel(root, dataPath)
		if err != nil {
			continue
		}

		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "results folder %s contains data file %s", resultsFolder, dataPath)
		}
	}

	return nil
}

// clearResults removes what a previous run left in folder: the top-level
// stats and state tables, and every subfolder holding a report. Other files
// are kept.
func clearResults(folder string) error {
	entries, err := os.ReadDir(folder)
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to read results folder %s", folder)
	}

	artifacts := map[string]bool{statsFileName: true}
	for _, table := range stateTables {
		artifacts[table+".parquet"] = true
	}

	for _, entry := range entries {
		path := filepath.Join(folder, entry.Name())

		remove := artifacts[entry.Name()] && !entry.IsDir()
		if entry.IsDir() {
			remove = holdsReport(path)
		}

		if !remove {
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to remove previous result %s", path)
		}
	}

	return nil
}

// holdsReport reports whether a report file exists anywhere under dir.
func holdsReport(dir string) bool {
	found := false

	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if !d.IsDir() && d.Name() == reportFileName {
			found = true

			return fs.SkipAll
		}

		return nil
	})

	return found
}
