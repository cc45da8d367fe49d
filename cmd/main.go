package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"time"

	mempush "github.com/mempush/mempush"
	"github.com/mempush/mempush/broadcaster"
	"github.com/mempush/mempush/config"
	"github.com/mempush/mempush/db"
	"github.com/mempush/mempush/log"
	"github.com/mempush/mempush/metrics"
	"github.com/mempush/mempush/networks"
	"github.com/mempush/mempush/reconciler"
	"github.com/mempush/mempush/server"
	"github.com/mempush/mempush/submitter"
	"github.com/mempush/mempush/types"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

const appName = "mempush"

var (
	configFileFlag = cli.StringFlag{
		Name:     config.FlagCfg,
		Aliases:  []string{"c"},
		Usage:    "Configuration `FILE`",
		Required: true,
	}
	migrationsFlag = cli.BoolFlag{
		Name:     config.FlagNoMigrations,
		Aliases:  []string{"n"},
		Usage:    "Disable run migrations in mempush database",
		Required: false,
	}
	networkFlag = cli.StringFlag{
		Name:     config.FlagNetwork,
		Usage:    "Only include txs of the given `NETWORK`",
		Required: false,
	}
	hideConfirmedFlag = cli.BoolFlag{
		Name:     config.FlagHideConfirmed,
		Usage:    "Hide txs already confirmed in the blockchain",
		Required: false,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "Bitcoin transaction submission and broadcast service"
	app.Version = mempush.Version
	flags := []cli.Flag{&configFileFlag}
	app.Commands = []*cli.Command{
		{
			Name:    "version",
			Aliases: []string{},
			Usage:   "Application version and build",
			Action:  versionCmd,
		},
		{
			Name:    "run",
			Aliases: []string{},
			Usage:   "Run mempush service",
			Action:  start,
			Flags:   append(flags, &migrationsFlag),
		},
		{
			Name:    "list",
			Aliases: []string{"ls"},
			Usage:   "List the tracked transactions",
			Action:  listCmd,
			Flags:   append(flags, &networkFlag, &hideConfirmedFlag),
		},
		{
			Name:    "sweep",
			Aliases: []string{},
			Usage:   "Reconcile every non confirmed transaction once and exit",
			Action:  sweepCmd,
			Flags:   append(flags, &networkFlag),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		println()
		println("ERROR:", err.Error())
		os.Exit(1)
	}
}

func start(cliCtx *cli.Context) error {
	// Load config file
	c, err := config.Load(cliCtx)
	if err != nil {
		return err
	}

	// Setup logger
	log.Init(c.Log)
	if c.Log.Environment == log.EnvironmentDevelopment {
		mempush.PrintVersion(os.Stdout)
		log.Info("starting application...")
	} else if c.Log.Environment == log.EnvironmentProduction {
		logVersion()
	}

	// Run migrations if the 'no-migrations' flag is not set
	if !cliCtx.Bool(config.FlagNoMigrations) {
		log.Infof("running database migrations, host: %s:%s, db: %s, user: %s", c.DB.Host, c.DB.Port, c.DB.Name, c.DB.User)
		runTxMigrations(c.DB)
	}
	checkTxMigrations(c.DB)

	var cancelFuncs []context.CancelFunc

	registry, err := networks.NewRegistry(c.Networks)
	if err != nil {
		log.Fatalf("error when creating network registry, error: %v", err)
	}

	txDB, err := db.NewTxDB(c.DB)
	if err != nil {
		log.Fatalf("error when creating tx DB instance, error: %v", err)
	}

	client := broadcaster.NewClient(c.Broadcaster, registry)

	reconciler := reconciler.NewReconciler(c.Reconciler, txDB, client)
	go reconciler.Start()

	submitter := submitter.NewSubmitter(txDB, client)

	server := server.NewServer(c.Server, registry, txDB, submitter, reconciler)
	go server.Start()

	if c.Metrics.Enabled {
		go startMetricsHttpServer(c.Metrics)
	}

	if c.Metrics.ProfilingEnabled {
		go startProfilingHttpServer(c.Metrics)
	}

	waitSignal(cancelFuncs)

	return nil
}

func versionCmd(*cli.Context) error {
	mempush.PrintVersion(os.Stdout)
	return nil
}

func listCmd(cliCtx *cli.Context) error {
	c, err := config.Load(cliCtx)
	if err != nil {
		return err
	}
	log.Init(c.Log)

	networkFilter, err := parseNetworkFlag(cliCtx)
	if err != nil {
		return err
	}

	txDB, err := db.NewTxDB(c.DB)
	if err != nil {
		return err
	}

	txs, err := txDB.GetTransactions(cliCtx.Context, networkFilter)
	if err != nil {
		return err
	}

	hideConfirmed := cliCtx.Bool(config.FlagHideConfirmed)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"TxID", "Network", "Status", "Attempts", "Last Result", "Created"})
	for _, tx := range txs {
		if hideConfirmed && tx.Status == types.TxStatusConfirmed {
			continue
		}
		table.Append([]string{
			shortenTxID(tx.TxID),
			tx.Network.String(),
			tx.Status,
			strconv.FormatUint(tx.PushAttempts, 10),
			tx.LastResult,
			tx.CreatedAt.Format(time.RFC3339),
		})
	}
	table.Render()

	return nil
}

func sweepCmd(cliCtx *cli.Context) error {
	c, err := config.Load(cliCtx)
	if err != nil {
		return err
	}
	log.Init(c.Log)

	networkFilter, err := parseNetworkFlag(cliCtx)
	if err != nil {
		return err
	}

	registry, err := networks.NewRegistry(c.Networks)
	if err != nil {
		return err
	}

	txDB, err := db.NewTxDB(c.DB)
	if err != nil {
		return err
	}

	client := broadcaster.NewClient(c.Broadcaster, registry)
	reconciler := reconciler.NewReconciler(c.Reconciler, txDB, client)

	summary, err := reconciler.Sweep(cliCtx.Context, networkFilter)
	if err != nil {
		return err
	}

	log.Infof("sweep finished, total: %d, confirmed: %d, in mempool: %d, failed: %d, errors: %d",
		summary.Total, summary.Confirmed, summary.InMempool, summary.Failed, summary.Errors)

	return nil
}

func parseNetworkFlag(cliCtx *cli.Context) (*networks.Network, error) {
	name := cliCtx.String(config.FlagNetwork)
	if name == "" {
		return nil, nil
	}
	network, err := networks.ParseNetwork(name)
	if err != nil {
		return nil, err
	}
	return &network, nil
}

func shortenTxID(txID string) string {
	const edge = 8
	if len(txID) <= edge*2 {
		return txID
	}
	return txID[:edge] + ".." + txID[len(txID)-edge:]
}

func runTxMigrations(c db.Config) {
	err := db.RunMigrationsUp(c)
	if err != nil {
		log.Fatal(err)
	}
}

func checkTxMigrations(c db.Config) {
	err := db.CheckMigrations(c)
	if err != nil {
		log.Fatal(err)
	}
}

func waitSignal(cancelFuncs []context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	for sig := range signals {
		switch sig {
		case os.Interrupt, os.Kill:
			log.Info("terminating application gracefully...")

			exitStatus := 0
			for _, cancel := range cancelFuncs {
				cancel()
			}
			os.Exit(exitStatus)
		}
	}
}

func logVersion() {
	log.Infow(
		"Git revision", mempush.GitRev,
		"Git branch", mempush.GitBranch,
		"Go version", runtime.Version(),
		"Built", mempush.BuildDate,
		"OS/Arch", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	)
}

func startProfilingHttpServer(c metrics.Config) {
	const two = 2
	mux := http.NewServeMux()
	address := fmt.Sprintf("%s:%d", c.ProfilingHost, c.ProfilingPort)
	lis, err := net.Listen("tcp", address)
	if err != nil {
		log.Errorf("failed to create tcp listener for profiling: %v", err)
		return
	}
	mux.HandleFunc(metrics.ProfilingIndexEndpoint, pprof.Index)
	mux.HandleFunc(metrics.ProfileEndpoint, pprof.Profile)
	mux.HandleFunc(metrics.ProfilingCmdEndpoint, pprof.Cmdline)
	mux.HandleFunc(metrics.ProfilingSymbolEndpoint, pprof.Symbol)
	mux.HandleFunc(metrics.ProfilingTraceEndpoint, pprof.Trace)
	profilingServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: two * time.Minute,
		ReadTimeout:       two * time.Minute,
	}
	log.Infof("profiling server listening on port %d", c.ProfilingPort)
	if err := profilingServer.Serve(lis); err != nil {
		if err == http.ErrServerClosed {
			log.Warnf("http server for profiling stopped")
			return
		}
		log.Errorf("closed http connection for profiling server: %v", err)
		return
	}
}

func startMetricsHttpServer(c metrics.Config) {
	const ten = 10
	mux := http.NewServeMux()
	address := fmt.Sprintf("%s:%d", c.Host, c.Port)
	lis, err := net.Listen("tcp", address)
	if err != nil {
		log.Errorf("failed to create tcp listener for metrics: %v", err)
		return
	}
	mux.Handle(metrics.Endpoint, promhttp.Handler())

	metricsServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: ten * time.Second,
		ReadTimeout:       ten * time.Second,
	}
	log.Infof("metrics server listening on port %d", c.Port)
	if err := metricsServer.Serve(lis); err != nil {
		if err == http.ErrServerClosed {
			log.Warnf("http server for metrics stopped")
			return
		}
		log.Errorf("closed http connection for metrics server: %v", err)
		return
	}
}
