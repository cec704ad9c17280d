package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/homeserver/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
//	-n string   server name
//	-H string   bind host
//	-p int      bind port
//	-E string   database engine (sqlite, postgres)
//	-D string   database path or DSN
//	-k string   signing key path
//	-m int      admin channel port, 0 disables it
//	-l string   log level
//	-w          serve the web client (use -w=false to disable)
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-n", "-H", "-p", "-E", "-D", "-k", "-m", "-l"}, "-w")

	fs := flag.NewFlagSet("homeserver", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.ServerName, "n", config.ServerName, "server name")
	fs.StringVar(&config.BindHost, "H", config.BindHost, "bind host")
	fs.IntVar(&config.BindPort, "p", config.BindPort, "bind port")
	fs.StringVar(&config.DatabaseEngine, "E", config.DatabaseEngine, "database engine")
	fs.StringVar(&config.DatabasePath, "D", config.DatabasePath, "database path or DSN")
	fs.StringVar(&config.SigningKeyPath, "k", config.SigningKeyPath, "signing key path")
	fs.IntVar(&config.AdminPort, "m", config.AdminPort, "admin channel port")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.BoolVar(&config.WebClient, "w", config.WebClient, "serve the web client")

	return fs.Parse(args)
}
