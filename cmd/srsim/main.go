package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/BurntSushi/toml"
	logging "github.com/ipfs/go-log/v2"

	"github.com/tjohn327/selective_repeat_arq/sim"
)

func main() {
	configFile := flag.String("c", "", "location of the config file")
	messages := flag.Int("messages", 0, "override the number of messages")
	loss := flag.Float64("loss", -1, "override the loss probability")
	corrupt := flag.Float64("corrupt", -1, "override the corruption probability")
	seed := flag.Int64("seed", 0, "override the rng seed (must be positive)")
	csvFile := flag.String("csv", "", "write per-message timings to this file")
	logLevel := flag.String("log", "", "log level for all subsystems")
	flag.Parse()

	if *logLevel != "" {
		level, err := logging.LevelFromString(*logLevel)
		check(err)
		logging.SetAllLoggers(level)
	}

	config := sim.DefaultConfig()
	if *configFile != "" {
		_, err := toml.DecodeFile(*configFile, &config)
		check(err)
	}
	if *messages > 0 {
		config.Messages = *messages
	}
	if *loss >= 0 {
		config.LossProb = *loss
	}
	if *corrupt >= 0 {
		config.CorruptProb = *corrupt
	}
	if *seed > 0 {
		config.Seed = *seed
	}

	harness, err := sim.New(config)
	check(err)
	report := harness.Run()

	fmt.Printf("finished after %v of virtual time\n", report.Elapsed)
	fmt.Printf("messages:     %d generated, %d accepted, %d delivered\n",
		report.Generated, len(report.Accepted), len(report.Delivered))
	fmt.Printf("sender:       %d sent, %d retransmits, %d window full\n",
		report.Sender.PacketsSent, report.Sender.Retransmits, report.Sender.WindowFull)
	fmt.Printf("acks:         %d new, %d duplicate, %d corrupt\n",
		report.Sender.NewAcks, report.Sender.DuplicateAcks, report.Sender.CorruptAcks)
	fmt.Printf("receiver:     %d received, %d corrupt, %d duplicate, %d acks sent\n",
		report.Receiver.PacketsReceived, report.Receiver.Corrupt, report.Receiver.Duplicates,
		report.Receiver.AcksSent)
	fmt.Printf("channel:      %d sent, %d lost, %d corrupted\n",
		report.Channel.Sent, report.Channel.Lost, report.Channel.Corrupted)
	fmt.Printf("mean latency: %v\n", report.MeanLatency())

	if *csvFile != "" {
		check(report.WriteCSVFile(*csvFile))
	}

	if !report.InOrder() {
		fmt.Println("DELIVERY ORDER VIOLATED")
		os.Exit(1)
	}
	if !report.Complete {
		fmt.Println("run incomplete: not every accepted message was delivered")
		os.Exit(1)
	}
}

func check(e error) {
	if e != nil {
		log.Fatal(e)
	}
}
