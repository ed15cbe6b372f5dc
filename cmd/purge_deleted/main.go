package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pitchroom-backend/internal/app"
)

func main() {
	var pitchArg string
	var olderThan time.Duration
	var dryRun bool
	flag.StringVar(&pitchArg, "pitch", "", "pitch_id to purge (must already be soft-deleted)")
	flag.DurationVar(&olderThan, "older-than", 30*24*time.Hour, "purge pitches soft-deleted longer ago than this")
	flag.BoolVar(&dryRun, "dry-run", false, "list pitches that would be purged without deleting anything")
	flag.Parse()

	log, err := app.NewLogger()
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	application, err := app.New(ctx, log, app.WithoutHTTP())
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	lifecycle := application.Services.Lifecycle

	if strings.TrimSpace(pitchArg) != "" {
		id, err := uuid.Parse(strings.TrimSpace(pitchArg))
		if err != nil || id == uuid.Nil {
			fmt.Printf("invalid -pitch value %q\n", pitchArg)
			os.Exit(2)
		}
		if dryRun {
			fmt.Printf("dry run: would purge pitch %s\n", id)
			return
		}
		report, err := lifecycle.Purge(ctx, id)
		if err != nil {
			fmt.Printf("purge %s: %v\n", id, err)
			os.Exit(1)
		}
		fmt.Printf("purged pitch %s (objects_deleted=%d objects_failed=%d)\n", id, report.ObjectsDeleted, report.ObjectsFailed)
		return
	}

	if olderThan <= 0 {
		fmt.Println("-older-than must be positive")
		os.Exit(2)
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	reports, err := lifecycle.PurgeDeletedBefore(ctx, cutoff, dryRun)
	if err != nil {
		fmt.Printf("purge deleted before %s: %v\n", cutoff.Format(time.RFC3339), err)
		os.Exit(1)
	}
	deleted, failed := 0, 0
	for _, r := range reports {
		if dryRun {
			fmt.Printf("dry run: would purge pitch %s\n", r.PitchID)
			continue
		}
		deleted += r.ObjectsDeleted
		failed += r.ObjectsFailed
	}
	fmt.Printf("pitches=%d objects_deleted=%d objects_failed=%d dry_run=%v cutoff=%s\n",
		len(reports), deleted, failed, dryRun, cutoff.Format(time.RFC3339))
}
