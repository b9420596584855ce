package main

import (
	"context"
	"flag"
	"io/fs"
	"log"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/broadstream/qgem/biz/dal/db"
	"github.com/broadstream/qgem/pkg/config"
	"github.com/broadstream/qgem/pkg/database"
	"github.com/broadstream/qgem/pkg/storage"
)

// Records catalog rows for objects copied into the local storage directory by hand.
// Usage: go run ./script -bucket=config-data [-dry-run]

var (
	bucketFlag = flag.String("bucket", "", "only backfill this bucket; empty means every bucket")
	dryRun     = flag.Bool("dry-run", false, "report missing rows without writing them")
)

func main() {
	flag.Parse()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Storage.Type != "local" {
		log.Fatalf("storage.type is %q; the catalog only backs the local backend", cfg.Storage.Type)
	}

	gdb, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	catalog, err := db.NewCatalog(gdb)
	if err != nil {
		log.Fatalf("migrate catalog: %v", err)
	}

	n, err := backfill(context.Background(), catalog, cfg.Storage.Local.BasePath, *bucketFlag, *dryRun)
	if err != nil {
		log.Fatalf("backfill: %v", err)
	}
	log.Printf("%d objects without a catalog row", n)
}

type objectCatalog interface {
	Keys(ctx context.Context, bucket, prefix string) (map[string]struct{}, error)
	Record(ctx context.Context, bucket, key string, meta storage.Metadata) error
}

// backfill walks basePath/<bucket> and records every regular file the catalog does not know.
// It returns the number of files that were missing.
func backfill(ctx context.Context, catalog objectCatalog, basePath, only string, dry bool) (int, error) {
	buckets, err := os.ReadDir(basePath)
	if err != nil {
		return 0, err
	}

	missing := 0
	for _, b := range buckets {
		if !b.IsDir() || !storage.ValidBucketName(b.Name()) || (only != "" && b.Name() != only) {
			continue
		}
		bucket := b.Name()
		root := filepath.Join(basePath, bucket)

		sizes := map[string]int64{}
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			sizes[filepath.ToSlash(rel)] = info.Size()
			return nil
		})
		if err != nil {
			return missing, err
		}
		if len(sizes) == 0 {
			continue
		}

		known, err := catalog.Keys(ctx, bucket, "")
		if err != nil {
			return missing, err
		}
		keys := make([]string, 0, len(sizes))
		for k := range sizes {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if _, ok := known[key]; ok {
				continue
			}
			missing++
			meta := storage.Metadata{Size: sizes[key], Mimetype: mime.TypeByExtension(path.Ext(key))}
			if meta.Mimetype == "" {
				meta.Mimetype = "application/octet-stream"
			}
			log.Printf("[%s] %s (%d bytes, %s)", bucket, key, meta.Size, meta.Mimetype)
			if dry {
				continue
			}
			if err := catalog.Record(ctx, bucket, key, meta); err != nil {
				log.Printf("  failed: %v", err)
				return missing, err
			}
		}
	}
	return missing, nil
}
