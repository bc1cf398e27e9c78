// Package env holds the settings and resources shared by all sub-commands.
package env

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Arkiv-Network/spaceindex/spaceindex/config"
	"github.com/Arkiv-Network/spaceindex/spaceindex/indexer"
	"github.com/Arkiv-Network/spaceindex/spaceindex/ipfs"
	"github.com/Arkiv-Network/spaceindex/spaceindex/sqlstore"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

const metadataKey = "env"

type Options struct {
	ConfigFile string
	Database   string
	Gateway    string
	IPFSDir    string
	KuboBin    string
	Verbosity  int
	LogJSON    bool
	LogFile    string
	RPCURL     string
}

func Flags(o *Options) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "config file (.toml, .yaml)",
			EnvVars:     []string{"SPACEINDEX_CONFIG"},
			Destination: &o.ConfigFile,
		},
		&cli.StringFlag{
			Name:        "db",
			Usage:       "SQLite database file",
			Value:       config.DefaultDatabase,
			EnvVars:     []string{"SPACEINDEX_DB"},
			Destination: &o.Database,
		},
		&cli.StringFlag{
			Name:        "ipfs-gateway",
			Usage:       "IPFS HTTP gateway, empty to disable",
			Value:       config.DefaultGateway,
			EnvVars:     []string{"IPFS_GATEWAY"},
			Destination: &o.Gateway,
		},
		&cli.StringFlag{
			Name:        "ipfs-dir",
			Usage:       "directory of documents stored by CID, consulted first",
			EnvVars:     []string{"IPFS_DIR"},
			Destination: &o.IPFSDir,
		},
		&cli.StringFlag{
			Name:        "ipfs-kubo-bin",
			Usage:       "path of a local ipfs binary",
			EnvVars:     []string{"IPFS_KUBO_BIN"},
			Destination: &o.KuboBin,
		},
		&cli.StringFlag{
			Name:        "rpc-url",
			Usage:       "HTTP-RPC server endpoint",
			Value:       config.DefaultRPCURL,
			EnvVars:     []string{"NODE_URL"},
			Destination: &o.RPCURL,
		},
		&cli.IntFlag{
			Name:        "verbosity",
			Usage:       "log level: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
			Value:       3,
			Destination: &o.Verbosity,
		},
		&cli.BoolFlag{
			Name:        "log-json",
			Usage:       "log as JSON",
			Destination: &o.LogJSON,
		},
		&cli.StringFlag{
			Name:        "log-file",
			Usage:       "write logs to this file, rotated, instead of stderr",
			Destination: &o.LogFile,
		},
	}
}

// Env is created once per invocation by Setup.
type Env struct {
	Config *config.Config

	store   *sqlstore.SQLStore
	gateway *ipfs.Gateway
}

// Setup configures logging, loads the config and applies flag overrides.
// It is meant to run as the App's Before hook.
func Setup(c *cli.Context, o *Options) error {
	SetupLogging(o.Verbosity, o.LogJSON, o.LogFile)

	cfg := config.Default()
	if o.ConfigFile != "" {
		loaded, err := config.Load(o.ConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if c.IsSet("db") || o.ConfigFile == "" {
		cfg.Database = o.Database
	}
	if c.IsSet("ipfs-gateway") || o.ConfigFile == "" {
		cfg.IPFS.Gateway = o.Gateway
	}
	if c.IsSet("ipfs-dir") {
		cfg.IPFS.Dir = o.IPFSDir
	}
	if c.IsSet("ipfs-kubo-bin") {
		cfg.IPFS.KuboBin = o.KuboBin
	}
	if c.IsSet("rpc-url") || o.ConfigFile == "" {
		cfg.RPC.URL = o.RPCURL
	}

	err := cfg.Validate()
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[metadataKey] = &Env{Config: cfg}

	return nil
}

func SetupLogging(verbosity int, jsonOutput bool, logFile string) {
	lvl := log.FromLegacyLevel(verbosity)

	var output io.Writer = os.Stderr
	useColor := false

	if logFile != "" {
		output = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 10,
			Compress:   true,
		}
	} else if !jsonOutput && (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) {
		output = colorable.NewColorableStderr()
		useColor = true
	}

	var handler slog.Handler
	if jsonOutput {
		handler = log.JSONHandlerWithLevel(output, lvl)
	} else {
		handler = log.NewTerminalHandlerWithLevel(output, lvl, useColor)
	}

	log.SetDefault(log.NewLogger(handler))
}

func Get(c *cli.Context) *Env {
	return c.App.Metadata[metadataKey].(*Env)
}

// Store opens the database on first use.
func (e *Env) Store() (*sqlstore.SQLStore, error) {
	if e.store != nil {
		return e.store, nil
	}

	store, err := sqlstore.NewStore(e.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	e.store = store
	return store, nil
}

// Fetcher builds the document fetcher chain: directory, then Kubo, then the
// gateway, behind the database cache when enabled.
func (e *Env) Fetcher() (ipfs.Fetcher, error) {
	var chain ipfs.Multi

	if e.Config.IPFS.Dir != "" {
		dir, err := ipfs.NewDir(e.Config.IPFS.Dir)
		if err != nil {
			return nil, err
		}
		chain = append(chain, dir)
	}

	if e.Config.IPFS.KuboBin != "" {
		chain = append(chain, ipfs.NewKubo(ipfs.KuboOptions{Bin: e.Config.IPFS.KuboBin}))
	}

	if e.Config.IPFS.Gateway != "" {
		if e.gateway == nil {
			gw, err := ipfs.NewGateway(e.Config.IPFS.Gateway, ipfs.GatewayOptions{Timeout: e.Config.IPFS.Timeout.Duration})
			if err != nil {
				return nil, err
			}
			e.gateway = gw
		}
		chain = append(chain, e.gateway)
	}

	if len(chain) == 0 {
		return nil, errors.New("no ipfs source configured: set --ipfs-dir, --ipfs-kubo-bin or --ipfs-gateway")
	}

	if !e.Config.IPFS.Cache {
		return chain, nil
	}

	store, err := e.Store()
	if err != nil {
		return nil, err
	}

	return &ipfs.Cached{Fetcher: chain, Cache: store}, nil
}

func (e *Env) Indexer() (*indexer.Indexer, error) {
	store, err := e.Store()
	if err != nil {
		return nil, err
	}

	fetcher, err := e.Fetcher()
	if err != nil {
		return nil, err
	}

	return indexer.New(store, fetcher, e.Config.Implementations()), nil
}

// Close releases what the command opened. It is meant to run as the App's
// After hook.
func Close(c *cli.Context) error {
	e, ok := c.App.Metadata[metadataKey].(*Env)
	if !ok {
		return nil
	}

	if e.gateway != nil {
		e.gateway.Close()
	}
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
