package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cachewdb/cachew-go/bench"
	"github.com/cachewdb/cachew-go/casp"
	"github.com/cachewdb/cachew-go/client"
	"github.com/cachewdb/cachew-go/config"
	"github.com/cachewdb/cachew-go/probe"
	"github.com/cachewdb/cachew-go/query"
	logger "github.com/sirupsen/logrus"
)

func main() {
	host := flag.String("host", "", "server host (overrides config and env)")
	port := flag.Int("port", 0, "server port (overrides config and env)")
	password := flag.String("password", "", "AUTH password (overrides config and env)")
	configPath := flag.String("c", "", "config path")
	debug := flag.Bool("d", false, "enable debug logging")
	runProbe := flag.Bool("probe", false, "run the canned AUTH/SET/GET probe and exit")
	runBench := flag.Bool("bench", false, "run the benchmark workload and exit")
	flag.Parse()

	if *debug {
		logger.SetLevel(logger.DebugLevel)
	} else {
		logger.SetLevel(logger.InfoLevel)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal(err)
		}
	}
	cfg.ApplyEnv()
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *password != "" {
		cfg.Password = *password
	}

	switch {
	case *runBench:
		summary, err := bench.Run(bench.Options{
			Host:           cfg.Host,
			Port:           cfg.Port,
			Password:       cfg.Password,
			Clients:        cfg.BenchClients,
			Requests:       cfg.BenchRequests,
			ReportInterval: time.Second,
		})
		if err != nil {
			logger.Fatal(err)
		}
		fmt.Println(summary)
	case *runProbe:
		c, err := client.DialTimeout(cfg.Host, cfg.Port, cfg.DialTimeout())
		if err != nil {
			logger.Fatal(err)
		}
		defer c.Close()
		if err := probe.Run(os.Stdout, c); err != nil {
			logger.Fatal(err)
		}
	case flag.NArg() > 0:
		os.Exit(runOneShot(cfg, strings.Join(flag.Args(), " ")))
	default:
		runInteractive(cfg)
	}
}

func connect(cfg config.Config) (*client.Client, error) {
	c, err := client.DialTimeout(cfg.Host, cfg.Port, cfg.DialTimeout())
	if err != nil {
		return nil, err
	}
	if cfg.Password == "" {
		return c, nil
	}
	resp, err := c.Auth(cfg.Password)
	if err != nil {
		c.Close()
		return nil, err
	}
	if resp.Status != casp.StatusOK {
		c.Close()
		return nil, fmt.Errorf("authentication failed: %s", resp.Value)
	}
	logger.Info("authentication successful")
	return c, nil
}

func runOneShot(cfg config.Config, input string) int {
	req, err := query.Parse(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "(error) %v\n", err)
		return 1
	}

	c, err := connect(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "(error) %v\n", err)
		return 1
	}
	defer c.Close()

	resp, err := c.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "(error) %v\n", err)
		return 1
	}
	fmt.Println(formatResponse(resp))
	if resp.Status == casp.StatusError {
		return 1
	}
	return 0
}

func runInteractive(cfg config.Config) {
	c, err := connect(cfg)
	if err != nil {
		logger.Fatal(err)
	}
	defer c.Close()

	logger.Infof("connected to server %v", c.Addr())
	if cfg.Password == "" {
		logger.Warn("not authenticated, the server will reject queries until you AUTH")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("cachew> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "$") {
			switch input {
			case "$exit":
				logger.Warn("stopping client")
				return
			case "$help":
				printHelp()
			default:
				fmt.Printf("(error) unknown meta command %q, type '$help' to see available commands\n", input)
			}
			continue
		}

		req, err := query.Parse(input)
		if err != nil {
			fmt.Printf("(error) %v\n", err)
			continue
		}
		resp, err := c.Do(req)
		if err != nil {
			fmt.Printf("(error) %v\n", err)
			return
		}
		fmt.Println(formatResponse(resp))

		if resp.Command == "SHUTDOWN" {
			logger.Warn("server shutting down, disconnecting")
			return
		}
	}
}

func formatResponse(resp casp.Response) string {
	switch resp.Status {
	case casp.StatusOK:
		if resp.Value != "" {
			return resp.Value
		}
		return "OK"
	case casp.StatusWarn:
		return "WARN " + resp.Command
	default:
		return "(error) " + resp.Value
	}
}

func printHelp() {
	fmt.Println("queries:")
	fmt.Println("  GET <key> | GET RANGE <from> <to> | GET MANY <key>...")
	fmt.Println("  SET <key> <value> | SET MANY <key> <value>, <key> <value>...")
	fmt.Println("  DEL <key> | DEL RANGE <from> <to> | DEL MANY <key>...")
	fmt.Println("  EXISTS <key> | LEN | CLEAR | PING | AUTH <password> | SHUTDOWN")
	fmt.Println("meta commands:")
	fmt.Println("  $help  show this help")
	fmt.Println("  $exit  disconnect and quit")
}
