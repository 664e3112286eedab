package telephony

import (
	"encoding/json"
	"testing"
)

func TestEnvelope_Decode(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		check func(t *testing.T, env Envelope)
	}{
		{
			name: "start",
			raw:  `{"event":"start","sequenceNumber":"1","start":{"accountSid":"AC1","streamSid":"MZ123","callSid":"CA9","tracks":["inbound"]},"streamSid":"MZ123"}`,
			check: func(t *testing.T, env Envelope) {
				if env.Event != EventStart {
					t.Fatalf("event: got %q", env.Event)
				}
				if env.Start == nil || env.Start.StreamSID != "MZ123" {
					t.Fatalf("start section: %+v", env.Start)
				}
				if env.Start.CallSID != "CA9" {
					t.Fatalf("callSid: got %q", env.Start.CallSID)
				}
			},
		},
		{
			name: "media",
			raw:  `{"event":"media","media":{"track":"inbound","chunk":"2","timestamp":"5000","payload":"b64=="},"streamSid":"MZ123"}`,
			check: func(t *testing.T, env Envelope) {
				if env.Event != EventMedia {
					t.Fatalf("event: got %q", env.Event)
				}
				if env.Media == nil || env.Media.Payload != "b64==" {
					t.Fatalf("media section: %+v", env.Media)
				}
				ts, ok := env.Media.TimestampMS()
				if !ok || ts != 5000 {
					t.Fatalf("timestamp: got (%d, %v)", ts, ok)
				}
			},
		},
		{
			name: "mark",
			raw:  `{"event":"mark","mark":{"name":"responsePart"},"streamSid":"MZ123"}`,
			check: func(t *testing.T, env Envelope) {
				if env.Event != EventMark || env.Mark == nil || env.Mark.Name != "responsePart" {
					t.Fatalf("mark envelope: %+v", env)
				}
			},
		},
		{
			name: "stop",
			raw:  `{"event":"stop","streamSid":"MZ123"}`,
			check: func(t *testing.T, env Envelope) {
				if env.Event != EventStop {
					t.Fatalf("event: got %q", env.Event)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var env Envelope
			if err := json.Unmarshal([]byte(tc.raw), &env); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			tc.check(t, env)
		})
	}
}

func TestMediaFrame_TimestampMS(t *testing.T) {
	cases := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"0", 0, true},
		{"5000", 5000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-20", 0, false},
	}
	for _, tc := range cases {
		m := MediaFrame{Timestamp: tc.raw}
		got, ok := m.TimestampMS()
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("TimestampMS(%q) = (%d, %v), want (%d, %v)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestOutboundFrameShapes(t *testing.T) {
	media, err := json.Marshal(outboundMedia{Event: "media", StreamSID: "MZ1", Media: mediaPayload{Payload: "abc"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(media) != `{"event":"media","streamSid":"MZ1","media":{"payload":"abc"}}` {
		t.Fatalf("media frame: %s", media)
	}

	mark, err := json.Marshal(outboundMark{Event: "mark", StreamSID: "MZ1", Mark: MarkFrame{Name: "responsePart"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(mark) != `{"event":"mark","streamSid":"MZ1","mark":{"name":"responsePart"}}` {
		t.Fatalf("mark frame: %s", mark)
	}

	clearFrame, err := json.Marshal(outboundClear{Event: "clear", StreamSID: "MZ1"})
	if err != nil {
		t.Fatal(err)
	}
	if string(clearFrame) != `{"event":"clear","streamSid":"MZ1"}` {
		t.Fatalf("clear frame: %s", clearFrame)
	}
}
