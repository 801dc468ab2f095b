package config

import (
	"flag"
	"os"
	"time"

	"github.com/dkrasnovs/fieldsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the sync service (default from Config)
//	-f string   path to the local database file (default from Config)
//	-u string   user id
//	-o string   organization id
//	-t string   bearer token
//	-i int      online check interval in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-u", "-o", "-t", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL of the sync service")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "path to the local database file")
	fs.StringVar(&cfg.UserID, "u", cfg.UserID, "user id")
	fs.StringVar(&cfg.OrganizationID, "o", cfg.OrganizationID, "organization id")
	fs.StringVar(&cfg.Token, "t", cfg.Token, "bearer token for the sync service")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
