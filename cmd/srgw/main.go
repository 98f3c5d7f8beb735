package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/benbjohnson/clock"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tjohn327/selective_repeat_arq/arq"
	"github.com/tjohn327/selective_repeat_arq/transport"
)

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type config struct {
	Mode        string   `toml:"mode"`
	Listen      string   `toml:"listen"`
	Remote      string   `toml:"remote"`
	WindowSize  int      `toml:"window_size"`
	SeqSpace    int      `toml:"seq_space"`
	RTT         duration `toml:"rtt"`
	MetricsAddr string   `toml:"metrics_addr"`
}

func (c config) params() arq.Params {
	p := arq.DefaultParams()
	if c.WindowSize > 0 {
		p.WindowSize = c.WindowSize
	}
	if c.SeqSpace > 0 {
		p.SeqSpace = c.SeqSpace
	}
	if c.RTT.Duration > 0 {
		p.RTT = c.RTT.Duration
	}
	return p
}

func main() {
	configFile := flag.String("c", "", "location of the config file")
	logLevel := flag.String("log", "", "log level for all subsystems")
	flag.Parse()

	if *logLevel != "" {
		level, err := logging.LevelFromString(*logLevel)
		check(err)
		logging.SetAllLoggers(level)
	}

	if *configFile == "" {
		check(errors.New("no config file specified"))
	}
	var cfg config
	_, err := toml.DecodeFile(*configFile, &cfg)
	check(err)
	if cfg.Listen == "" {
		cfg.Listen = ":0"
	}

	switch cfg.Mode {
	case "sender":
		if cfg.Remote == "" {
			check(errors.New("sender mode needs a remote address"))
		}
		runSender(cfg)
	case "receiver":
		runReceiver(cfg)
	default:
		check(errors.Errorf("invalid mode %q, want sender or receiver", cfg.Mode))
	}
}

// runSender reads stdin line by line and ships each line as one message.
// Lines longer than the payload size are truncated. A full window is
// retried until the window drains; rejected submissions never drop input.
func runSender(cfg config) {
	endpoint, err := transport.DialSender(cfg.Listen, cfg.Remote, cfg.params(), clock.New())
	check(err)
	defer endpoint.Close()
	serveMetrics(cfg.MetricsAddr, transport.Collector{Sender: endpoint})

	retry := cfg.params().RTT / 4
	if retry < 10*time.Millisecond {
		retry = 10 * time.Millisecond
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		for {
			err := endpoint.Submit(scanner.Bytes())
			if errors.Is(err, arq.ErrWindowFull) {
				time.Sleep(retry)
				continue
			}
			check(err)
			break
		}
	}
	check(scanner.Err())

	// All of stdin is in flight; wait for the window to drain.
	for endpoint.Outstanding() > 0 {
		time.Sleep(50 * time.Millisecond)
	}
	printSenderStats(endpoint.Stats())
}

// runReceiver prints every delivered payload as one line on stdout until
// interrupted.
func runReceiver(cfg config) {
	out := bufio.NewWriter(os.Stdout)
	endpoint, err := transport.ListenReceiver(cfg.Listen, cfg.params(), arq.DeliverFunc(func(p arq.Payload) {
		out.Write(bytes.TrimRight(p[:], "\x00"))
		out.WriteByte('\n')
		out.Flush()
	}))
	check(err)
	defer endpoint.Close()
	serveMetrics(cfg.MetricsAddr, transport.Collector{Receiver: endpoint})

	log.Printf("listening on %v", endpoint.LocalAddr())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	printReceiverStats(endpoint.Stats())
}

func serveMetrics(addr string, collector transport.Collector) {
	if addr == "" {
		return
	}
	prometheus.MustRegister(collector)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		check(http.ListenAndServe(addr, nil))
	}()
}

func printSenderStats(st arq.SenderStats) {
	fmt.Printf("accepted %d messages, sent %d packets (%d retransmits, %d window full)\n",
		st.MessagesAccepted, st.PacketsSent, st.Retransmits, st.WindowFull)
	fmt.Printf("acks: %d new, %d duplicate, %d corrupt\n",
		st.NewAcks, st.DuplicateAcks, st.CorruptAcks)
}

func printReceiverStats(st arq.ReceiverStats) {
	fmt.Printf("received %d packets (%d corrupt, %d duplicate, %d out of range)\n",
		st.PacketsReceived, st.Corrupt, st.Duplicates, st.OutOfRange)
	fmt.Printf("delivered %d payloads, sent %d acks\n", st.Delivered, st.AcksSent)
}

func check(e error) {
	if e != nil {
		log.Fatal(e)
	}
}
