package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-grading/internal/app"
	"github.com/yungbote/neurobridge-grading/internal/domain/auth"
	"github.com/yungbote/neurobridge-grading/internal/services"
)

func main() {
	assignment := flag.String("assignment", "", "assignment id to grade")
	tone := flag.String("tone", "", "feedback tone (encouraging, direct, socratic, growth_mindset)")
	guidance := flag.String("guidance", "", "extra teacher guidance passed to the generator")
	flag.Parse()

	assignmentID, err := uuid.Parse(*assignment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -assignment: %v\n", err)
		os.Exit(2)
	}

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := a.Services.Grading.GradeAssignmentBatch(ctx, auth.SystemCaller(), assignmentID, services.GradeRequest{
		Tone:            *tone,
		TeacherGuidance: *guidance,
	})
	if err != nil {
		a.Log.Error("batch grading failed", "assignment_id", assignmentID, "error", err)
		a.Close()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
	a.Log.Info("batch grading finished",
		"assignment_id", assignmentID,
		"graded", report.Graded,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)
	if report.Failed > 0 {
		a.Close()
		os.Exit(3)
	}
}
