package session

import (
	"testing"
	"time"

	"github.com/tanujdesk/remotedesk/internal/sessiontransport"
)

func TestRTTTrackerRoundTrip(t *testing.T) {
	var local, remote rttTracker

	ping := local.sendPing()
	time.Sleep(2 * time.Millisecond)

	reply, shouldReply := remote.handle(ping)
	if !shouldReply {
		t.Fatal("remote should echo a peer-initiated ping")
	}

	if _, shouldReply := local.handle(reply); shouldReply {
		t.Fatal("local should recognize the reply to its own ping, not echo it again")
	}

	if local.RTT() <= 0 {
		t.Fatalf("RTT() = %v, want > 0", local.RTT())
	}
	if remote.RTT() != 0 {
		t.Fatalf("remote.RTT() = %v, want 0 (it never sent its own ping)", remote.RTT())
	}
}

func TestRTTTrackerEchoesUnmatchedTimestamp(t *testing.T) {
	var tracker rttTracker
	reply, shouldReply := tracker.handle(sessiontransport.Pong(123))
	if !shouldReply {
		t.Fatal("a timestamp with no matching pending ping has no correlating local probe, so it must be treated as a peer-initiated ping and echoed")
	}
	if reply.Ping == nil || reply.Ping.TimestampMs != 123 {
		t.Fatalf("echoed reply = %+v, want TimestampMs=123", reply)
	}
}
