package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"

	"partner-hub/domain"
	"partner-hub/observability"
)

// hubctl is a small operator tool: it reads the hub's admin endpoints
// and renders them as tables. It never mutates hub state.
type Config struct {
	HubURL  string        `envconfig:"HUB_URL" default:"http://localhost:8080"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"5s"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("hubctl", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}

	flag.Parse()
	command := flag.Arg(0)

	client := &http.Client{Timeout: cfg.Timeout}

	var err error
	switch command {
	case "presence":
		err = showPresence(client, cfg.HubURL)
	case "stats":
		err = showStats(client, cfg.HubURL)
	default:
		fmt.Fprintln(os.Stderr, "usage: hubctl <presence|stats>")
		os.Exit(2)
	}
	if err != nil {
		color.Red.Printf("hubctl: %v\n", err)
		os.Exit(1)
	}
}

func showPresence(client *http.Client, baseURL string) error {
	var entries []domain.PresenceEntry
	if err := fetch(client, baseURL+"/internal/presence", &entries); err != nil {
		return err
	}

	if len(entries) == 0 {
		color.Yellow.Println("nobody online")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"User", "Connections", "Rooms", "Online since"})
	for _, entry := range entries {
		table.Append([]string{
			entry.UserID,
			strconv.Itoa(entry.Connections),
			strconv.Itoa(entry.Rooms),
			entry.Since.Local().Format(time.RFC3339),
		})
	}
	table.Render()
	color.Green.Printf("%d user(s) online\n", len(entries))
	return nil
}

func showStats(client *http.Client, baseURL string) error {
	var stats observability.HubStats
	if err := fetch(client, baseURL+"/internal/stats", &stats); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"active connections", strconv.FormatInt(stats.ActiveConnections, 10)})
	table.Append([]string{"online users", strconv.FormatInt(stats.OnlineUsers, 10)})
	table.Append([]string{"connections opened", strconv.FormatUint(stats.ConnectionsOpened, 10)})
	table.Append([]string{"connections closed", strconv.FormatUint(stats.ConnectionsClosed, 10)})
	table.Append([]string{"room joins", strconv.FormatUint(stats.RoomJoins, 10)})
	table.Append([]string{"events dispatched", strconv.FormatUint(stats.EventsDispatched, 10)})
	table.Append([]string{"events dropped", strconv.FormatUint(stats.EventsDropped, 10)})
	table.Append([]string{"send failures", strconv.FormatUint(stats.SendFailures, 10)})
	table.Render()

	if stats.SendFailures > 0 || stats.EventsDropped > 0 {
		color.Yellow.Println("deliveries were lost; clients resync on reload")
	} else {
		color.Green.Println("all deliveries healthy")
	}
	return nil
}

func fetch(client *http.Client, url string, dst any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hub answered %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
