// Command flightsearch runs the flight search form from a terminal. The
// profile file plays the role of the browser's persistent storage.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/flight-search-web/internal/config"
	"github.com/smarttransit/flight-search-web/internal/models"
	"github.com/smarttransit/flight-search-web/internal/services"
	"github.com/smarttransit/flight-search-web/internal/storage"
	"github.com/smarttransit/flight-search-web/pkg/flightsapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	from       string
	to         string
	date       string
	travellers string
	profile    string
	apiURL     string
	mountWait  time.Duration
	list       bool
	book       bool
	verbose    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("flightsearch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.from, "from", "", "departure airport code")
	fs.StringVar(&opts.to, "to", "", "arrival airport code")
	fs.StringVar(&opts.date, "date", "", "trip date (YYYY-MM-DD)")
	fs.StringVar(&opts.travellers, "travellers", models.DefaultTravellers, "number of travellers")
	fs.StringVar(&opts.profile, "profile", "", "profile file holding the client id (default ~/.flightsearch/profile.json)")
	fs.StringVar(&opts.apiURL, "api", "", "flights backend base URL (overrides FLIGHTS_API_URL)")
	fs.DurationVar(&opts.mountWait, "wait", 5*time.Second, "how long to wait for the airport catalog")
	fs.BoolVar(&opts.list, "list", false, "list available airports and exit")
	fs.BoolVar(&opts.book, "book", false, "print the bookings route and exit")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")
	return opts, fs.Parse(args)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(logrus.WarnLevel)
	if opts.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if opts.book {
		fmt.Fprintln(stdout, models.BookingsRoute)
		return 0
	}

	apiCfg := config.FlightsAPIConfig{BaseURL: opts.apiURL, Timeout: 10 * time.Second}
	if apiCfg.BaseURL == "" {
		if apiCfg, err = config.LoadFlightsAPI(); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	}

	profile := opts.profile
	if profile == "" {
		if profile, err = storage.DefaultProfilePath(); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	}

	client := flightsapi.NewClient(apiCfg.BaseURL, apiCfg.Timeout)
	identity := services.NewIdentityService(storage.NewFileStore(profile), logger)
	navigator := services.NavigatorFunc(func(target string) {
		fmt.Fprintln(stdout, target)
	})

	form := services.NewSearchForm(client, client, navigator, logger)
	defer form.Close()
	form.Mount(identity)

	waitCtx, cancel := context.WithTimeout(ctx, opts.mountWait)
	err = form.WaitMounted(waitCtx)
	cancel()
	if err != nil && ctx.Err() != nil {
		return 130
	}
	logger.WithField("client_id", form.ClientID()).Debug("Form mounted")

	if opts.list {
		for _, option := range form.Airports() {
			fmt.Fprintf(stdout, "%s\t%s\n", option.Value, option.Label)
		}
		return 0
	}

	if err := selectAirport(form, opts.from, form.SetDeparture); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if err := selectAirport(form, opts.to, form.SetArrival); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	form.SetDate(opts.date)
	form.SetTravellerCount(opts.travellers)

	if _, err := form.Submit(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// selectAirport picks a catalog entry by code; an empty code leaves the field unset
func selectAirport(form *services.SearchForm, code string, set func(*models.AirportOption)) error {
	if code == "" {
		return nil
	}
	option, ok := form.FindAirport(code)
	if !ok {
		return fmt.Errorf("unknown airport code: %s", code)
	}
	set(&option)
	return nil
}
