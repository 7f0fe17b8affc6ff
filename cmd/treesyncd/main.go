// Command treesyncd is a small demo binary, in the spirit of the
// corpus's own cmd/graft: it wires a WorldState sync tree, the NATS
// transport, and the root dispatcher together and prints state
// transitions and patch traffic to the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/nats-io/nats.go"
	"github.com/starkandwayne/goutils/ansi"
	"github.com/voxelbrain/goptions"

	"github.com/wayneeseguin/treesync/internal/config"
	natstransport "github.com/wayneeseguin/treesync/transport/nats"
	"github.com/wayneeseguin/treesync/pkg/treesync"
)

// Version is stamped at release time the same way the teacher stamps
// its own cmd/graft binary.
var Version = "(development)"

var getopts = func(o interface{}) {
	if err := goptions.Parse(o); err != nil {
		goptions.PrintHelp()
		os.Exit(1)
	}
}

func main() {
	var options struct {
		NatsURL string `goptions:"--nats-url, description='NATS server URL to connect to'"`
		TreeID  string `goptions:"--tree-id, description='Tree instance identifier shared by every connected peer'"`
		Config  string `goptions:"--config, description='Path to a treesync deployment config file'"`
		Router  bool   `goptions:"--router, description='Run as a router peer instead of the authority'"`
		Color   string `goptions:"--color, description='Control color output (on/off/auto, default: auto)'"`
		Version bool   `goptions:"-v, --version, description='Display version information'"`
		Help    bool   `goptions:"-h, --help"`
	}
	options.NatsURL = nats.DefaultURL
	options.TreeID = "demo"
	options.Color = "auto"
	getopts(&options)

	if options.Help {
		goptions.PrintHelp()
		return
	}
	if options.Version {
		fmt.Printf("treesyncd - Version %s\n", Version)
		return
	}

	var shouldColor bool
	switch options.Color {
	case "on":
		shouldColor = true
	case "off":
		shouldColor = false
	default:
		shouldColor = isatty.IsTerminal(os.Stdout.Fd())
	}
	ansi.Color(shouldColor)

	logger := newAnsiLogger("info")
	manager := config.NewManager()
	var watcher *config.FileWatcher
	if options.Config != "" {
		if err := manager.Load(options.Config); err != nil {
			fmt.Println(ansi.Sprintf("@R{error loading config: %s}", err))
			os.Exit(1)
		}
		watcher = config.NewFileWatcher(manager, logger)
		watcher.OnModeChange(func(old, newMode config.AuthorityMode) {
			fmt.Println(ansi.Sprintf("@Y{authority mode changed from %s to %s on disk; restart treesyncd to apply it}", old, newMode))
		})
		if err := watcher.Watch(options.Config); err != nil {
			fmt.Println(ansi.Sprintf("@R{error watching config file: %s}", err))
			os.Exit(1)
		}
		defer watcher.Stop()
	}
	cfg := manager.Get()
	if options.Router {
		cfg.Dispatcher.Mode = config.Router
	}
	logger = newAnsiLogger(cfg.Logging.Level)

	conn, err := nats.Connect(options.NatsURL,
		nats.Name("treesyncd/"+options.TreeID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				fmt.Println(ansi.Sprintf("@Y{disconnected from nats: %s}", err))
			}
		}),
		nats.ReconnectHandler(func(*nats.Conn) {
			fmt.Println(ansi.Sprintf("@G{reconnected to nats}"))
		}),
	)
	if err != nil {
		fmt.Println(ansi.Sprintf("@R{unable to connect to nats at %s: %s}", options.NatsURL, err))
		os.Exit(1)
	}
	defer conn.Close()

	transport, err := natstransport.New(conn, options.TreeID, natstransport.Options{Logger: logger})
	if err != nil {
		fmt.Println(ansi.Sprintf("@R{unable to build transport: %s}", err))
		os.Exit(1)
	}
	defer transport.Close()

	world := NewWorldState()
	dispatcher := treesync.NewDispatcher(world.SyncNode, transport, cfg.Dispatcher)
	dispatcher.SetLogger(logger)
	defer dispatcher.Close()

	dispatcher.OnEvent(func(ev treesync.DispatcherEvent) {
		fmt.Println(ansi.Sprintf("@C{dispatcher event: %s}", eventName(ev)))
	})
	world.OnPatched(func() {
		fmt.Println(ansi.Sprintf("@g{tick=%d status=%q}", world.Tick.Get(), world.Status.Get()))
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := dispatcher.Connect(ctx); err != nil {
		fmt.Println(ansi.Sprintf("@R{connect failed: %s}", err))
		os.Exit(1)
	}

	go dispatcher.Run(ctx, cfg.Dispatcher.TickInterval, func(err error) {
		fmt.Println(ansi.Sprintf("@Y{tick error: %s}", err))
	})

	if cfg.Dispatcher.Mode == config.Authoritative {
		go authorityLoop(ctx, world)
	}

	<-ctx.Done()
	dispatcher.Disconnect()
}

// authorityLoop advances the tick counter once a second, purely so the
// demo has something to sync.
func authorityLoop(ctx context.Context, world *WorldState) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			world.Tick.Set(world.Tick.Get() + 1)
		}
	}
}

func eventName(ev treesync.DispatcherEvent) string {
	switch ev {
	case treesync.Connected:
		return "connected"
	case treesync.Snapshotted:
		return "snapshotted"
	case treesync.Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
