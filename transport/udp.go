package transport

import (
	"net"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/tjohn327/selective_repeat_arq/arq"
)

const maxBufferSize = 1200

// SenderEndpoint runs the sending half of a session over a UDP socket.
// Data packets go to the configured remote; a reader goroutine feeds
// returning ACKs into the protocol core. One mutex serializes the read
// loop, the timer expiry and the application's Submit calls, which keeps
// the lock-free core honest.
type SenderEndpoint struct {
	mu       sync.Mutex
	conn     *net.UDPConn
	remote   *net.UDPAddr
	sender   *arq.Sender
	timer    *Timer
	tracker  *RateTracker
	lastRetr int

	closed    chan struct{}
	closeOnce sync.Once
}

// DialSender binds the local address and wires a sender toward remote.
// The clock parameter lets tests drive the retransmission timer; pass
// clock.New() for production.
func DialSender(listen, remote string, params arq.Params, clk clock.Clock) (*SenderEndpoint, error) {
	raddr, err := net.ResolveUDPAddr("udp", remote)
	if err != nil {
		return nil, errors.Wrap(err, "resolve remote address")
	}
	laddr, err := net.ResolveUDPAddr("udp", listen)
	if err != nil {
		return nil, errors.Wrap(err, "resolve listen address")
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, errors.Wrap(err, "listen udp")
	}

	e := &SenderEndpoint{
		conn:    conn,
		remote:  raddr,
		tracker: NewRateTracker(32),
		closed:  make(chan struct{}),
	}
	e.timer = NewTimer(&e.mu, clk, func() { e.sender.HandleTimeout() })
	e.sender, err = arq.NewSender(params, arq.ChannelFunc(e.writePacket), e.timer)
	if err != nil {
		conn.Close()
		return nil, err
	}

	go e.readLoop()
	return e, nil
}

// Submit frames data as one message and offers it to the send window.
// Data past the payload size is truncated. A full window surfaces as
// arq.ErrWindowFull; the caller owns the retry policy.
func (e *SenderEndpoint) Submit(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sender.Submit(arq.NewMessage(data))
}

// Outstanding returns the number of packets still in the window.
func (e *SenderEndpoint) Outstanding() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sender.Outstanding()
}

// Stats returns a copy of the protocol counters.
func (e *SenderEndpoint) Stats() arq.SenderStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sender.Stats()
}

// RetransmitRate returns the recent average of retransmissions spent per
// processed acknowledgment.
func (e *SenderEndpoint) RetransmitRate() float64 {
	return e.tracker.Average()
}

// LocalAddr returns the bound socket address.
func (e *SenderEndpoint) LocalAddr() net.Addr {
	return e.conn.LocalAddr()
}

// Close stops the timer and tears the socket down. The read loop exits on
// the resulting socket error.
func (e *SenderEndpoint) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.closed)
		e.mu.Lock()
		e.timer.Stop()
		e.mu.Unlock()
		err = e.conn.Close()
	})
	return err
}

func (e *SenderEndpoint) writePacket(pkt arq.Packet) {
	if _, err := e.conn.WriteToUDP(MarshalPacket(pkt), e.remote); err != nil {
		log.Errorf("send: %v", err)
	}
}

func (e *SenderEndpoint) readLoop() {
	buffer := make([]byte, maxBufferSize)
	for {
		n, _, err := e.conn.ReadFromUDP(buffer)
		if err != nil {
			select {
			case <-e.closed:
				return
			default:
			}
			log.Errorf("ack read: %v", err)
			continue
		}
		pkt, err := UnmarshalPacket(buffer[:n])
		if err != nil {
			log.Debugf("ack read: %v", err)
			continue
		}

		e.mu.Lock()
		before := e.sender.Stats().NewAcks
		e.sender.HandleAck(pkt)
		st := e.sender.Stats()
		if st.NewAcks > before {
			// Charge this acknowledgment with the retransmissions spent
			// since the previous new one.
			e.tracker.Insert(float64(st.Retransmits - e.lastRetr))
			e.lastRetr = st.Retransmits
		}
		e.mu.Unlock()
	}
}

// ReceiverEndpoint runs the receiving half of a session over a UDP
// socket. ACKs go back to the source address of each data packet, so the
// receiver needs no peer configuration. Payloads reach the deliverer on
// the read goroutine; slow consumers should hand off.
type ReceiverEndpoint struct {
	mu       sync.Mutex
	conn     *net.UDPConn
	receiver *arq.Receiver
	ackTo    *net.UDPAddr

	closed    chan struct{}
	closeOnce sync.Once
}

// ListenReceiver binds the local address and wires a receiver delivering
// to app.
func ListenReceiver(listen string, params arq.Params, app arq.Deliverer) (*ReceiverEndpoint, error) {
	laddr, err := net.ResolveUDPAddr("udp", listen)
	if err != nil {
		return nil, errors.Wrap(err, "resolve listen address")
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, errors.Wrap(err, "listen udp")
	}

	e := &ReceiverEndpoint{conn: conn, closed: make(chan struct{})}
	e.receiver, err = arq.NewReceiver(params, arq.ChannelFunc(e.writeAck), app)
	if err != nil {
		conn.Close()
		return nil, err
	}

	go e.readLoop()
	return e, nil
}

// Stats returns a copy of the protocol counters.
func (e *ReceiverEndpoint) Stats() arq.ReceiverStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.receiver.Stats()
}

// LocalAddr returns the bound socket address.
func (e *ReceiverEndpoint) LocalAddr() net.Addr {
	return e.conn.LocalAddr()
}

// Close tears the socket down. The read loop exits on the resulting
// socket error.
func (e *ReceiverEndpoint) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.closed)
		err = e.conn.Close()
	})
	return err
}

// writeAck answers toward the origin of the packet being handled. The
// read loop sets ackTo under the mutex before entering the core.
func (e *ReceiverEndpoint) writeAck(pkt arq.Packet) {
	if e.ackTo == nil {
		return
	}
	if _, err := e.conn.WriteToUDP(MarshalPacket(pkt), e.ackTo); err != nil {
		log.Errorf("ack send: %v", err)
	}
}

func (e *ReceiverEndpoint) readLoop() {
	buffer := make([]byte, maxBufferSize)
	for {
		n, src, err := e.conn.ReadFromUDP(buffer)
		if err != nil {
			select {
			case <-e.closed:
				return
			default:
			}
			log.Errorf("read: %v", err)
			continue
		}
		pkt, err := UnmarshalPacket(buffer[:n])
		if err != nil {
			log.Debugf("read: %v", err)
			continue
		}

		e.mu.Lock()
		e.ackTo = src
		e.receiver.HandlePacket(pkt)
		e.mu.Unlock()
	}
}
