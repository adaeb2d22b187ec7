package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"brewcart/internal/backup"
	"brewcart/internal/config"
	"brewcart/internal/localstore"
	"brewcart/internal/timeutil"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	exportS3 := exportCmd.Bool("s3", false, "Upload the snapshot to the configured S3 bucket instead of a file")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path, or S3 key with -s3 (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")
	importS3 := importCmd.Bool("s3", false, "Download the snapshot from the configured S3 bucket")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	db, err := localstore.Open(cfg.StorageType, cfg.StoragePath, cfg.StorageURL)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer db.Close()

	local, err := localstore.NewStore(db)
	if err != nil {
		log.Fatalf("Failed to initialize local store: %v", err)
	}

	service := backup.NewService(local, timeutil.System())

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		if *exportS3 {
			handleS3Export(cfg, service, *exportOutput)
		} else {
			handleExport(service, *exportOutput)
		}

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		if *importS3 {
			handleS3Import(cfg, service, *importInput, *importClear)
		} else {
			handleImport(service, *importInput, *importClear)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(service *backup.Service, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	snapshot, err := service.Export(outputPath)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	fmt.Printf("Exported %d entries to %s (snapshot %s)\n", len(snapshot.Entries), outputPath, snapshot.ID)
}

func handleImport(service *backup.Service, inputPath string, clear bool) {
	if clear {
		fmt.Println("WARNING: -clear will drop all existing local data before import.")
	}

	snapshot, err := service.Import(inputPath, clear)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	fmt.Printf("Imported %d entries from %s (snapshot %s, exported %s)\n",
		len(snapshot.Entries), inputPath, snapshot.ID, snapshot.ExportedAt.Format(time.RFC3339))
}

func handleS3Export(cfg *config.Config, service *backup.Service, key string) {
	sync := mustS3Sync(cfg)
	storedKey, err := sync.Upload(context.Background(), service, key)
	if err != nil {
		log.Fatalf("S3 export failed: %v", err)
	}
	fmt.Printf("Uploaded snapshot to s3://%s/%s\n", cfg.S3Bucket, storedKey)
}

func handleS3Import(cfg *config.Config, service *backup.Service, key string, clear bool) {
	sync := mustS3Sync(cfg)
	snapshot, err := sync.Download(context.Background(), service, key, clear)
	if err != nil {
		log.Fatalf("S3 import failed: %v", err)
	}
	fmt.Printf("Restored %d entries from s3://%s/%s (snapshot %s)\n",
		len(snapshot.Entries), cfg.S3Bucket, key, snapshot.ID)
}

func mustS3Sync(cfg *config.Config) *backup.S3Sync {
	if cfg.S3Bucket == "" {
		log.Fatal("S3_BUCKET is not configured")
	}
	sync, err := backup.NewS3Sync(context.Background(), cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
	if err != nil {
		log.Fatalf("Failed to configure S3: %v", err)
	}
	return sync
}

func printUsage() {
	fmt.Println(`Usage: backup <command> [flags]

Commands:
  export    Export the local store to a JSON snapshot
  import    Restore the local store from a JSON snapshot

Examples:
  backup export
  backup export -output snapshots/today.json
  backup export -s3
  backup import -input backup_20260301_120000.json
  backup import -s3 -input snapshots/backup_20260301_120000.json -clear`)
}
