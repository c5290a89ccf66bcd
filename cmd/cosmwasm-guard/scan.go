// Copyright 2026 The cosmwasm-guard Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/cosmwasm-guard/internal/errors"
	"github.com/kraklabs/cosmwasm-guard/internal/metrics"
	"github.com/kraklabs/cosmwasm-guard/internal/ui"
	"github.com/kraklabs/cosmwasm-guard/pkg/astmodel"
	"github.com/kraklabs/cosmwasm-guard/pkg/cache"
	"github.com/kraklabs/cosmwasm-guard/pkg/contract"
	"github.com/kraklabs/cosmwasm-guard/pkg/detect"
	"github.com/kraklabs/cosmwasm-guard/pkg/detect/detectors"
	"github.com/kraklabs/cosmwasm-guard/pkg/discover"
	"github.com/kraklabs/cosmwasm-guard/pkg/ir"
	"github.com/kraklabs/cosmwasm-guard/pkg/report"
	"github.com/kraklabs/cosmwasm-guard/pkg/suppress"
)

const configFileName = ".cosmwasm-guard.toml"

func runScan(args []string, globals GlobalFlags, logger *slog.Logger) int {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	sarif := fs.Bool("sarif", false, "Output findings as SARIF 2.1.0")
	minSeverity := fs.String("min-severity", "", "Minimum severity to report (informational|low|medium|high)")
	minConfidence := fs.String("min-confidence", "", "Minimum confidence to report (low|medium|high)")
	enable := fs.StringSlice("enable", nil, "Detector names to enable exclusively")
	disable := fs.StringSlice("disable", nil, "Detector names to disable")
	excludeFiles := fs.StringSlice("exclude", nil, "Glob patterns of files to exclude")
	auditMode := fs.Bool("audit-mode", false, "Report at low confidence and flag stale suppressions")
	baselinePath := fs.String("baseline", "", "Path to a baseline file of previously-accepted findings")
	noCache := fs.Bool("no-cache", false, "Disable the incremental cache")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	_ = fs.Parse(args)

	if *metricsAddr != "" {
		metrics.StartServer(*metricsAddr, logger)
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		errors.FatalError(errors.NewIOError("failed to resolve crate root", root, err), globals.JSON)
		return 2
	}

	started := time.Now()

	fileConfig, err := suppress.LoadFileConfig(filepath.Join(absRoot, configFileName))
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return 2
	}
	cli := suppress.CLIOverrides{
		Enable: *enable, Disable: *disable, ExcludeFiles: *excludeFiles,
		MinSeverity: *minSeverity, MinSeverityIsSet: *minSeverity != "",
		MinConfidence: *minConfidence, MinConfIsSet: *minConfidence != "",
		AuditMode: *auditMode, AuditModeIsSet: *auditMode,
	}
	resolved, err := suppress.Resolve(fileConfig, cli)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return 2
	}

	var baseline *suppress.Baseline
	if *baselinePath != "" {
		baseline, err = suppress.LoadBaseline(*baselinePath)
		if err != nil {
			errors.FatalError(err, globals.JSON)
			return 2
		}
	}

	paths, err := discover.Files(absRoot)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return 2
	}
	logger.Info("discovered source files", "count", len(paths))

	var guardCache *cache.Cache
	if !*noCache {
		guardCache, err = cache.Open(filepath.Join(absRoot, cache.DirName))
		if err != nil {
			errors.FatalError(err, globals.JSON)
			return 2
		}
	}

	provider := astmodel.NewTreeSitterProvider()

	var slices []*contract.ContractSlice
	var functionIrs []*ir.FunctionIr
	sourceMap := make(map[int]*detect.SourceFile)
	var rawAsts []detect.RawAst
	cacheHits := 0

	bar := ui.NewScanProgressBar(len(paths), globals.JSON || globals.Quiet)

	for i, relPath := range paths {
		fileID := i
		_ = bar.Add(1)
		metrics.FilesScanned.Inc()
		fullPath := filepath.Join(absRoot, relPath)
		content, readErr := os.ReadFile(fullPath) //nolint:gosec // G304: path from crate-local discovery
		if readErr != nil {
			errors.FatalError(errors.NewIOError("failed to read source file", relPath, readErr), globals.JSON)
			return 2
		}
		sourceMap[fileID] = &detect.SourceFile{ID: fileID, Path: relPath, Lines: strings.Split(string(content), "\n")}

		if guardCache != nil {
			if art, ok := guardCache.Lookup(relPath, content); ok {
				cacheHits++
				metrics.CacheHits.Inc()
				slices = append(slices, rebindFileID(art.Slice, fileID))
				functionIrs = append(functionIrs, rebindFunctionIrFileIDs(art.Functions, fileID)...)
				logger.Debug("cache hit", "file", relPath)
				continue
			}
		}

		root, parseErr := provider.Parse(fileID, relPath, content)
		if parseErr != nil {
			line, col := 0, 0
			if pe, ok := parseErr.(*astmodel.ParseError); ok {
				line, col = pe.Line, pe.Col
			}
			errors.FatalError(errors.NewParseError(relPath, line, col, parseErr), globals.JSON)
			return 2
		}
		rawAsts = append(rawAsts, detect.RawAst{FileID: fileID, Root: root})

		modulePath := modulePathFor(relPath)
		slice := contract.NewExtractor().ExtractFile(root, fileID, modulePath)
		slices = append(slices, slice)

		var fileFuncIrs []*ir.FunctionIr
		for _, fn := range slice.Functions {
			if fn.AST == nil {
				continue
			}
			fileFuncIrs = append(fileFuncIrs, ir.Build(fn))
		}
		functionIrs = append(functionIrs, fileFuncIrs...)

		if guardCache != nil {
			if storeErr := guardCache.Store(relPath, content, &cache.Artifact{Slice: slice, Functions: fileFuncIrs}); storeErr != nil {
				logger.Warn("failed to write cache artifact", "file", relPath, "error", storeErr)
			}
		}
	}

	_ = bar.Finish()

	if guardCache != nil {
		if flushErr := guardCache.Flush(); flushErr != nil {
			logger.Warn("failed to flush cache manifest", "error", flushErr)
		}
		logger.Info("cache summary", "hits", cacheHits, "total", len(paths))
	}

	contractInfo, err := contract.Merge(slices)
	if err != nil {
		errors.FatalError(errors.NewInternalError("failed to merge contract slices", err), globals.JSON)
		return 2
	}

	crateIr := &ir.ContractIr{Functions: make(map[string]*ir.FunctionIr, len(functionIrs))}
	for _, fnIr := range functionIrs {
		crateIr.Functions[fnIr.Function.QualifiedName] = fnIr
	}

	registry := detect.NewRegistry()
	detectors.RegisterAll(registry)

	ctx := &detect.Context{Contract: contractInfo, Ir: crateIr, RawAsts: rawAsts, SourceMap: sourceMap, Config: resolved}
	lineAt := func(file string, line int) string { return lineAtFunc(sourceMap, file, line) }

	findings := detect.Run(registry, ctx, lineAt)

	// Stale baseline entries are judged against the findings as detected,
	// before FilterNew drops the ones the baseline still matches.
	hygiene := suppress.Hygiene(baseline, findings)
	if baseline != nil {
		findings = suppress.FilterNew(findings, baseline)
	}
	if resolved.AuditMode {
		findings = append(findings, hygiene...)
	}

	for _, f := range findings {
		metrics.FindingsTotal.WithLabelValues(f.Severity.String()).Inc()
	}

	elapsed := time.Since(started)

	switch {
	case globals.JSON:
		if err := report.WriteJSON(os.Stdout, findings, ""); err != nil {
			errors.FatalError(errors.NewInternalError("failed to encode JSON report", err), globals.JSON)
			return 2
		}
	case *sarif:
		if err := report.WriteSARIF(os.Stdout, findings); err != nil {
			errors.FatalError(errors.NewInternalError("failed to encode SARIF report", err), globals.JSON)
			return 2
		}
	default:
		report.WriteTerminal(os.Stdout, findings, len(paths), elapsed)
	}

	// Detector findings below the configured threshold were already dropped
	// by suppress.Filter inside detect.Run; audit-mode hygiene findings were
	// not, so the severity threshold is checked again here (spec §6's
	// exit-code rule).
	for _, f := range findings {
		if f.Severity >= resolved.MinSeverity {
			return 1
		}
	}
	return 0
}

func lineAtFunc(sourceMap map[int]*detect.SourceFile, file string, line int) string {
	for _, sf := range sourceMap {
		if sf.Path != file {
			continue
		}
		if line < 1 || line > len(sf.Lines) {
			return ""
		}
		return sf.Lines[line-1]
	}
	return ""
}

// rebindFileID stamps a cache-hit artifact's slice and every function's
// recorded span with the current run's file ID, since file IDs are assigned
// per-run by discovery order and are not stable cache keys themselves (the
// content digest is).
func rebindFileID(slice *contract.ContractSlice, fileID int) *contract.ContractSlice {
	slice.FileID = fileID
	for _, fn := range slice.Functions {
		fn.Span.FileID = fileID
		if fn.AST != nil {
			stampSpan(fn.AST, fileID)
		}
	}
	for _, ty := range slice.Types {
		ty.Span.FileID = fileID
	}
	for _, st := range slice.Statics {
		st.Span.FileID = fileID
	}
	return slice
}

func stampSpan(n *astmodel.Node, fileID int) {
	n.Span.FileID = fileID
	for _, c := range n.Children {
		stampSpan(c, fileID)
	}
}

// rebindFunctionIrFileIDs restamps a cache-hit artifact's lowered IR with the
// current run's file ID: the function's own span, and every instruction's
// span across every block of its Cfg. Without this, a cache hit for a file
// whose discovery-order index shifted (because some other file was
// added/removed elsewhere in the crate) would keep reporting findings under
// whatever file currently owns its stale fileID.
func rebindFunctionIrFileIDs(fnIrs []*ir.FunctionIr, fileID int) []*ir.FunctionIr {
	for _, fnIr := range fnIrs {
		fnIr.Function.Span.FileID = fileID
		if fnIr.Cfg == nil {
			continue
		}
		for _, blockID := range fnIr.Cfg.Order {
			block := fnIr.Cfg.Blocks[blockID]
			for _, instr := range block.Instructions {
				instr.Span.FileID = fileID
			}
		}
	}
	return fnIrs
}

// modulePathFor derives a Rust module path from a crate-relative file path,
// following cargo's convention: src/lib.rs and src/main.rs are the crate
// root, src/mod.rs style files take their parent directory's name, and every
// other file contributes its stem as one more "::"-separated segment.
func modulePathFor(relPath string) string {
	rel := strings.TrimPrefix(relPath, "src/")
	rel = strings.TrimSuffix(rel, ".rs")
	segments := strings.Split(rel, "/")

	var parts []string
	for _, seg := range segments {
		if seg == "lib" || seg == "main" || seg == "mod" {
			continue
		}
		parts = append(parts, seg)
	}
	if len(parts) == 0 {
		return "crate"
	}
	return "crate::" + strings.Join(parts, "::")
}
