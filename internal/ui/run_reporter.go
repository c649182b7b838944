package ui

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/beagle/internal/scan"
	"github.com/temirov/beagle/internal/utils"
)

const (
	progressMessageTemplateConstant = "[%3d%%] %s"
	runSummaryMessageConstant       = "scan finished"
	lineWriteFailedMessageConstant  = "failed to write scan output line"
	logFieldStatusConstant          = "status"
	logFieldProgressConstant        = "progress"
	logFieldLineCountConstant       = "line_count"
)

// RunReporter implements scan.RunObserver by echoing lines to a writer and logging progress.
type RunReporter struct {
	outputWriter *utils.FlushingWriter
	logger       *zap.Logger
}

// NewRunReporter constructs a reporter. A nil writer discards output lines.
func NewRunReporter(outputWriter io.Writer, logger *zap.Logger) *RunReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunReporter{outputWriter: utils.NewFlushingWriter(outputWriter), logger: logger}
}

// LineReceived writes the line followed by a newline.
func (reporter *RunReporter) LineReceived(line string) {
	if writeError := reporter.outputWriter.WriteLine(line); writeError != nil {
		reporter.logger.Warn(lineWriteFailedMessageConstant, zap.Error(writeError))
	}
}

// ProgressChanged logs the new percentage with the triggering line.
func (reporter *RunReporter) ProgressChanged(percent int, status string) {
	reporter.logger.Info(fmt.Sprintf(progressMessageTemplateConstant, percent, status))
}

// RunCompleted logs the final state of the run.
func (reporter *RunReporter) RunCompleted(snapshot scan.Snapshot) {
	reporter.logger.Info(
		runSummaryMessageConstant,
		zap.String(logFieldStatusConstant, snapshot.Status),
		zap.Int(logFieldProgressConstant, snapshot.Progress),
		zap.Int(logFieldLineCountConstant, len(snapshot.Log)),
	)
}
