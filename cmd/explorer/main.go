// Command explorer browses a bucket through the storage proxy and downloads its JSON objects.
package main

import (
	"flag"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/broadstream/qgem/pkg/client"
	"github.com/broadstream/qgem/pkg/explorer"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "storage proxy base URL")
	bucket := flag.String("bucket", "config-data", "bucket to browse")
	out := flag.String("out", ".", "directory for downloaded files and games.json")
	limit := flag.Int("limit", 100, "maximum entries per listing")
	publicHost := flag.String("public-host", "", "public storage host used for selected folders")
	flag.Parse()

	c, err := client.New(*server)
	if err != nil {
		log.Fatalf("client: %v", err)
	}

	m := explorer.New(c, explorer.Options{
		Bucket:     *bucket,
		OutDir:     *out,
		Limit:      *limit,
		PublicHost: *publicHost,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("explorer: %v", err)
	}
}
