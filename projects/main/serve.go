package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.etcd.io/bbolt"

	"github.com/open-control-systems/mdns-hub/components/core"
	"github.com/open-control-systems/mdns-hub/components/discovery"
	"github.com/open-control-systems/mdns-hub/components/discovery/disadvert"
	"github.com/open-control-systems/mdns-hub/components/discovery/disstore"
	"github.com/open-control-systems/mdns-hub/components/http/htcore"
	"github.com/open-control-systems/mdns-hub/components/pipeline"
	"github.com/open-control-systems/mdns-hub/components/pipeline/piphttp"
	"github.com/open-control-systems/mdns-hub/components/storage/stcore"
	"github.com/open-control-systems/mdns-hub/components/storage/stinfluxdb"
	"github.com/open-control-systems/mdns-hub/components/system/sysmdns"
	"github.com/open-control-systems/mdns-hub/components/system/sysnet"
	"github.com/open-control-systems/mdns-hub/components/system/syssched"
)

type serveParams struct {
	browse browseParams

	dbPath     string
	httpHost   string
	httpPort   int
	advertise  bool
	instance   string
	hubType    string
	mirrorURLs []string
}

func newServeCommand() *cobra.Command {
	params := &serveParams{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Browse the local network and serve discovered services over HTTP",
		RunE: func(_ *cobra.Command, _ []string) error {
			app := newApplication()

			if err := startServing(app, params); err != nil {
				app.close()

				return err
			}

			return app.run()
		},
	}

	params.browse.register(cmd)

	cmd.Flags().StringVar(&params.dbPath, "db-path", "mdns-hub.db",
		"path to the discovered services database")
	cmd.Flags().StringVar(&params.httpHost, "http-host", "0.0.0.0", "HTTP server host")
	cmd.Flags().IntVar(&params.httpPort, "http-port", 8080, "HTTP server port")
	cmd.Flags().BoolVar(&params.advertise, "advertise", true,
		"advertise the HTTP API on the local network")
	cmd.Flags().StringVar(&params.instance, "instance", sysnet.Hostname(),
		"service instance name of the advertised HTTP API")
	cmd.Flags().StringVar(&params.hubType, "hub-type", "_mdns-hub._tcp.local.",
		"service type of the advertised HTTP API")
	cmd.Flags().StringSliceVar(&params.mirrorURLs, "mirror-url", nil,
		"base URL of the remote hub to mirror services from")

	return cmd
}

func startServing(app *application, params *serveParams) error {
	db, err := stcore.NewBboltDB(params.dbPath, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return err
	}
	app.closer.Add("bbolt-db", db)

	store := disstore.NewStore(stcore.NewBboltDBBucket(db, "services"),
		discovery.LogErrorReporter{Source: "discovery-store"})

	handler := &discovery.FanoutHandler{}
	handler.Add(discovery.LogHandler{})
	handler.Add(store)

	pruneTimer := time.AfterFunc(2*sysmdns.DefaultEngineParams().RefreshInterval,
		store.PruneRestored)
	app.closer.Add("discovery-store-prune", core.FuncCloser(func() error {
		pruneTimer.Stop()

		return nil
	}))

	dbParams := stinfluxdb.DBParams{
		URL:    os.Getenv("INFLUXDB_URL"),
		Org:    os.Getenv("INFLUXDB_ORG"),
		Bucket: os.Getenv("INFLUXDB_BUCKET"),
		Token:  os.Getenv("INFLUXDB_API_TOKEN"),
	}
	if dbParams.Valid() {
		influxPipeline := stinfluxdb.NewPipeline(app.ctx,
			discovery.LogErrorReporter{Source: "influxdb-pipeline"}, dbParams)
		app.closer.Add("influxdb-pipeline", syssched.StopCloser(influxPipeline))
		app.starter.Add(influxPipeline)

		handler.Add(influxPipeline.GetEventHandler())
	} else {
		core.LogInf.Println("mdns-hub: influxdb isn't configured, events aren't persisted")
	}

	for n, url := range params.mirrorURLs {
		mirror := pipeline.NewHTTPPipeline(app.ctx, app.closer, store,
			pipeline.HTTPPipelineParams{
				ID:            fmt.Sprintf("mirror-pipeline-%d", n),
				BaseURL:       url,
				FetchInterval: time.Second * 10,
				FetchTimeout:  time.Second * 5,
			})
		app.starter.Add(mirror)
	}

	browser, err := startBrowsing(app, handler, &params.browse)
	if err != nil {
		return err
	}

	serverParams := piphttp.ServerPipelineParams{
		Store:   store,
		Browser: browser,
		Server: htcore.ServerParams{
			Host: params.httpHost,
			Port: params.httpPort,
		},
	}

	var advertiser *disadvert.Session
	if params.advertise {
		advertiser = newAdvertiseSession(app)
		serverParams.Advertiser = advertiser
	}

	serverPipeline, err := piphttp.NewServerPipeline(app.closer, serverParams)
	if err != nil {
		return err
	}
	app.starter.Add(serverPipeline)

	if advertiser == nil {
		return nil
	}

	port, err := serverPort(serverPipeline.URL())
	if err != nil {
		return err
	}

	return advertise(advertiser, &advertiseParams{
		instance:    params.instance,
		serviceType: params.hubType,
		port:        port,
		txt:         map[string]string{"path": "/api/v1"},
	})
}

func serverPort(url string) (int, error) {
	_, port, err := net.SplitHostPort(strings.TrimPrefix(url, "http://"))
	if err != nil {
		return 0, fmt.Errorf("mdns-hub: invalid server URL: %s: %w", url, err)
	}

	return strconv.Atoi(port)
}
