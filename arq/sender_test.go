package arq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(t *testing.T, params Params) (*Sender, *recordChannel, *recordTimer) {
	t.Helper()
	ch := &recordChannel{}
	tm := &recordTimer{}
	s, err := NewSender(params, ch, tm)
	require.NoError(t, err)
	return s, ch, tm
}

func TestSubmitFillsWindowThenRejects(t *testing.T) {
	s, ch, tm := newTestSender(t, DefaultParams())

	for i := 0; i < 6; i++ {
		require.NoError(t, s.Submit(Message{Data: payloadOf(byte('a' + i))}))
	}
	require.Len(t, ch.sent, 6)
	for i, pkt := range ch.sent {
		assert.Equal(t, i, pkt.SeqNum)
		assert.Equal(t, NotInUse, pkt.AckNum)
		assert.False(t, pkt.Corrupted())
		assert.Equal(t, payloadOf(byte('a'+i)), pkt.Payload)
	}
	assert.Equal(t, 6, s.Outstanding())
	assert.Equal(t, 6, s.NextSeq())
	// Only the first submit armed the timer.
	assert.Equal(t, 1, tm.starts)
	assert.Equal(t, 16*time.Second, tm.last)

	err := s.Submit(Message{Data: payloadOf('g')})
	assert.ErrorIs(t, err, ErrWindowFull)
	assert.Len(t, ch.sent, 6)
	assert.Equal(t, 6, s.Outstanding())

	st := s.Stats()
	assert.Equal(t, 6, st.MessagesAccepted)
	assert.Equal(t, 1, st.WindowFull)
	assert.Equal(t, 6, st.PacketsSent)
}

func TestAckSlidesContiguousRun(t *testing.T) {
	s, _, tm := newTestSender(t, DefaultParams())
	for i := 0; i < 6; i++ {
		require.NoError(t, s.Submit(Message{Data: payloadOf(byte('a' + i))}))
	}

	// Acks for 1 and 2 land ahead of the window head: marked, no slide.
	s.HandleAck(newAck(1))
	s.HandleAck(newAck(2))
	assert.Equal(t, 6, s.Outstanding())
	assert.Equal(t, 0, tm.stops)

	// The head ack releases the whole contiguous run 0,1,2.
	s.HandleAck(newAck(0))
	assert.Equal(t, 3, s.Outstanding())
	assert.Equal(t, 1, tm.stops)
	assert.Equal(t, 2, tm.starts)
	assert.True(t, tm.running)

	st := s.Stats()
	assert.Equal(t, 3, st.NewAcks)
	assert.Equal(t, 0, st.DuplicateAcks)
}

func TestTimerStopsWhenWindowEmpties(t *testing.T) {
	s, _, tm := newTestSender(t, DefaultParams())
	require.NoError(t, s.Submit(Message{Data: payloadOf('a')}))
	require.True(t, tm.running)

	s.HandleAck(newAck(0))
	assert.Equal(t, 0, s.Outstanding())
	assert.False(t, tm.running)

	// A straggler copy of the same ack is a duplicate now.
	s.HandleAck(newAck(0))
	st := s.Stats()
	assert.Equal(t, 1, st.NewAcks)
	assert.Equal(t, 1, st.DuplicateAcks)
	assert.Equal(t, 1, tm.starts)
}

func TestDuplicateAndUnknownAcks(t *testing.T) {
	s, _, _ := newTestSender(t, DefaultParams())
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Submit(Message{Data: payloadOf(byte('a' + i))}))
	}

	s.HandleAck(newAck(1))
	s.HandleAck(newAck(1)) // already marked
	s.HandleAck(newAck(7)) // never sent
	s.HandleAck(newAck(999999))

	st := s.Stats()
	assert.Equal(t, 1, st.NewAcks)
	assert.Equal(t, 3, st.DuplicateAcks)
	assert.Equal(t, 3, s.Outstanding())
}

func TestCorruptAckDropped(t *testing.T) {
	s, _, tm := newTestSender(t, DefaultParams())
	require.NoError(t, s.Submit(Message{Data: payloadOf('a')}))

	ack := newAck(0)
	ack.Checksum++
	s.HandleAck(ack)

	st := s.Stats()
	assert.Equal(t, 1, st.CorruptAcks)
	assert.Equal(t, 0, st.NewAcks)
	assert.Equal(t, 1, s.Outstanding())
	assert.True(t, tm.running)
}

func TestTimeoutResendsOnlyWindowHead(t *testing.T) {
	s, ch, tm := newTestSender(t, DefaultParams())
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Submit(Message{Data: payloadOf(byte('a' + i))}))
	}
	head := ch.sent[0]

	s.HandleTimeout()
	require.Len(t, ch.sent, 4)
	assert.Equal(t, head, ch.sent[3])
	assert.Equal(t, 2, tm.starts)

	s.HandleTimeout()
	require.Len(t, ch.sent, 5)
	assert.Equal(t, head, ch.sent[4])

	// Once the head is acknowledged the next expiry resends packet 1.
	s.HandleAck(newAck(0))
	s.HandleTimeout()
	assert.Equal(t, 1, ch.sent[len(ch.sent)-1].SeqNum)

	st := s.Stats()
	assert.Equal(t, 3, st.Retransmits)
	assert.Equal(t, 6, st.PacketsSent)
}

func TestTimeoutWithEmptyWindow(t *testing.T) {
	s, ch, tm := newTestSender(t, DefaultParams())
	s.HandleTimeout()
	assert.Empty(t, ch.sent)
	assert.Equal(t, 0, tm.starts)
	assert.Equal(t, 0, s.Stats().Retransmits)
}

func TestAcksAcrossSequenceWraparound(t *testing.T) {
	s, ch, _ := newTestSender(t, Params{WindowSize: 2, SeqSpace: 4, RTT: time.Second})

	// Five full trips around the sequence ring. Every cycle must accept
	// and release its packets; the second visit of each sequence number
	// must look no different from the first.
	for cycle := 0; cycle < 5; cycle++ {
		require.NoError(t, s.Submit(Message{Data: payloadOf('a')}))
		require.NoError(t, s.Submit(Message{Data: payloadOf('b')}))
		first := ch.sent[len(ch.sent)-2].SeqNum
		second := ch.sent[len(ch.sent)-1].SeqNum
		assert.Equal(t, (2*cycle)%4, first)
		assert.Equal(t, (2*cycle+1)%4, second)

		s.HandleAck(newAck(first))
		s.HandleAck(newAck(second))
		require.Equal(t, 0, s.Outstanding(), "cycle %d did not drain", cycle)
	}

	st := s.Stats()
	assert.Equal(t, 10, st.NewAcks)
	assert.Equal(t, 0, st.DuplicateAcks)
	assert.Equal(t, 2, s.NextSeq())
}

func TestResetRestoresInitialState(t *testing.T) {
	s, ch, _ := newTestSender(t, DefaultParams())
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Submit(Message{Data: payloadOf(byte('a' + i))}))
	}
	s.HandleAck(newAck(1))

	s.Reset()
	assert.Equal(t, 0, s.Outstanding())
	assert.Equal(t, 0, s.NextSeq())
	assert.Equal(t, SenderStats{}, s.Stats())

	// The first packet after a reset starts the sequence over.
	require.NoError(t, s.Submit(Message{Data: payloadOf('z')}))
	assert.Equal(t, 0, ch.sent[len(ch.sent)-1].SeqNum)

	s.Reset()
	s.Reset()
	assert.Equal(t, 0, s.Outstanding())
	assert.Equal(t, SenderStats{}, s.Stats())
}
