package cli

import (
	"go.uber.org/zap"

	"github.com/packforge/packforge/internal/publish"
)

var stageLabels = map[publish.Stage]string{
	publish.StageAnalyzing:             "Analyzing component imports",
	publish.StageBuildingClient:        "Building client modules",
	publish.StageBuildingServer:        "Building server modules",
	publish.StageBundlingFrameworkDeps: "Bundling framework runtime",
	publish.StageBundlingDetectedDeps:  "Bundling detected dependencies",
	publish.StageBundlingServerDeps:    "Bundling server runtime",
	publish.StageGeneratingManifest:    "Writing manifest",
	publish.StageGeneratingImportMap:   "Writing import map",
	publish.StageUploading:             "Uploading",
}

// spinnerStages are the stages long enough to keep a spinner running while
// the compiler works; the cheap JSON-writing stages just print a step line.
var spinnerStages = map[publish.Stage]bool{
	publish.StageAnalyzing:             true,
	publish.StageBuildingClient:        true,
	publish.StageBuildingServer:        true,
	publish.StageBundlingFrameworkDeps: true,
	publish.StageBundlingDetectedDeps:  true,
	publish.StageBundlingServerDeps:    true,
	publish.StageUploading:             true,
}

// InteractiveProgress renders stage transitions for a human watching the
// build: a step line per stage, with a spinner kept alive through the slow
// compile and upload stages. Each stage boundary stops the previous
// spinner before printing anything.
func InteractiveProgress() publish.ProgressFunc {
	var spinner *Spinner
	stopSpinner := func() {
		if spinner != nil {
			spinner.Stop()
			spinner = nil
		}
	}

	return func(p publish.Progress) {
		stopSpinner()
		switch p.Stage {
		case publish.StageDone:
			Done("Publish complete!")
		case publish.StageFailed:
			Error("%s", p.Detail)
		default:
			label := stageLabels[p.Stage]
			if p.Detail != "" {
				Step("%s (%s)", label, p.Detail)
			} else {
				Step("%s", label)
			}
			if spinnerStages[p.Stage] {
				spinner = NewSpinner(label)
				spinner.Start()
			}
		}
	}
}

// LoggerProgress reports stage boundaries through a structured logger, for
// unattended runs.
func LoggerProgress(log *zap.Logger) publish.ProgressFunc {
	return func(p publish.Progress) {
		if p.Stage == publish.StageFailed {
			log.Error("publish stage failed", zap.String("detail", p.Detail))
			return
		}
		log.Info("publish stage", zap.String("stage", string(p.Stage)), zap.String("detail", p.Detail))
	}
}
