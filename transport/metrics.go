package transport

import "github.com/prometheus/client_golang/prometheus"

var (
	messagesAcceptedDesc = prometheus.NewDesc("srarq_messages_accepted_total",
		"Messages accepted into the send window.", nil, nil)
	windowFullDesc = prometheus.NewDesc("srarq_window_full_total",
		"Messages rejected because the send window was full.", nil, nil)
	packetsSentDesc = prometheus.NewDesc("srarq_packets_sent_total",
		"Data packets written to the socket, retransmissions included.", nil, nil)
	retransmitsDesc = prometheus.NewDesc("srarq_retransmits_total",
		"Timeout-driven retransmissions.", nil, nil)
	newAcksDesc = prometheus.NewDesc("srarq_new_acks_total",
		"Acknowledgments carrying new information.", nil, nil)
	duplicateAcksDesc = prometheus.NewDesc("srarq_duplicate_acks_total",
		"Acknowledgments carrying no new information.", nil, nil)
	corruptAcksDesc = prometheus.NewDesc("srarq_corrupt_acks_total",
		"Acknowledgments dropped on checksum failure.", nil, nil)
	retransmitRateDesc = prometheus.NewDesc("srarq_retransmits_per_ack",
		"Recent average retransmissions spent per acknowledged packet.", nil, nil)

	packetsReceivedDesc = prometheus.NewDesc("srarq_packets_received_total",
		"Valid data packets received, duplicates included.", nil, nil)
	corruptPacketsDesc = prometheus.NewDesc("srarq_corrupt_packets_total",
		"Data packets dropped on checksum failure.", nil, nil)
	invalidPacketsDesc = prometheus.NewDesc("srarq_invalid_packets_total",
		"Data packets dropped for a sequence number outside the sequence space.", nil, nil)
	bufferedDesc = prometheus.NewDesc("srarq_buffered_total",
		"Payloads stored into the reassembly buffer.", nil, nil)
	duplicatePacketsDesc = prometheus.NewDesc("srarq_duplicate_packets_total",
		"Data packets acknowledged again without buffering.", nil, nil)
	outOfRangePacketsDesc = prometheus.NewDesc("srarq_out_of_range_packets_total",
		"Data packets in neither the receive window nor the re-acknowledgment zone.", nil, nil)
	deliveredDesc = prometheus.NewDesc("srarq_delivered_total",
		"Payloads delivered to the application in order.", nil, nil)
	acksSentDesc = prometheus.NewDesc("srarq_acks_sent_total",
		"Acknowledgment packets written to the socket.", nil, nil)
)

// Collector exposes the protocol counters of the endpoints it wraps, one
// series per counter on each side. Either endpoint may be nil; a gateway
// usually runs just one side.
type Collector struct {
	Sender   *SenderEndpoint
	Receiver *ReceiverEndpoint
}

func (c Collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

func (c Collector) Collect(ch chan<- prometheus.Metric) {
	if c.Sender != nil {
		st := c.Sender.Stats()
		ch <- prometheus.MustNewConstMetric(messagesAcceptedDesc, prometheus.CounterValue, float64(st.MessagesAccepted))
		ch <- prometheus.MustNewConstMetric(windowFullDesc, prometheus.CounterValue, float64(st.WindowFull))
		ch <- prometheus.MustNewConstMetric(packetsSentDesc, prometheus.CounterValue, float64(st.PacketsSent))
		ch <- prometheus.MustNewConstMetric(retransmitsDesc, prometheus.CounterValue, float64(st.Retransmits))
		ch <- prometheus.MustNewConstMetric(newAcksDesc, prometheus.CounterValue, float64(st.NewAcks))
		ch <- prometheus.MustNewConstMetric(duplicateAcksDesc, prometheus.CounterValue, float64(st.DuplicateAcks))
		ch <- prometheus.MustNewConstMetric(corruptAcksDesc, prometheus.CounterValue, float64(st.CorruptAcks))
		ch <- prometheus.MustNewConstMetric(retransmitRateDesc, prometheus.GaugeValue, c.Sender.RetransmitRate())
	}
	if c.Receiver != nil {
		st := c.Receiver.Stats()
		ch <- prometheus.MustNewConstMetric(packetsReceivedDesc, prometheus.CounterValue, float64(st.PacketsReceived))
		ch <- prometheus.MustNewConstMetric(corruptPacketsDesc, prometheus.CounterValue, float64(st.Corrupt))
		ch <- prometheus.MustNewConstMetric(invalidPacketsDesc, prometheus.CounterValue, float64(st.Invalid))
		ch <- prometheus.MustNewConstMetric(bufferedDesc, prometheus.CounterValue, float64(st.Buffered))
		ch <- prometheus.MustNewConstMetric(duplicatePacketsDesc, prometheus.CounterValue, float64(st.Duplicates))
		ch <- prometheus.MustNewConstMetric(outOfRangePacketsDesc, prometheus.CounterValue, float64(st.OutOfRange))
		ch <- prometheus.MustNewConstMetric(deliveredDesc, prometheus.CounterValue, float64(st.Delivered))
		ch <- prometheus.MustNewConstMetric(acksSentDesc, prometheus.CounterValue, float64(st.AcksSent))
	}
}
