package monitor

import (
	"net"
	"testing"

	"github.com/sperrystudios/screenrecorder/internal/config"
	"github.com/sperrystudios/screenrecorder/internal/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingController struct {
	toggles int
	quality []options.Quality
	audio   []bool
}

func (c *recordingController) Toggle()                      { c.toggles++ }
func (c *recordingController) SetQuality(q options.Quality) { c.quality = append(c.quality, q) }
func (c *recordingController) SetAudioEnabled(b bool)       { c.audio = append(c.audio, b) }

func TestParseCommand(t *testing.T) {
	tests := []struct {
		payload string
		want    Command
	}{
		{"toggle", Command{Kind: CommandToggle}},
		{"  TOGGLE \n", Command{Kind: CommandToggle}},
		{"quality SD", Command{Kind: CommandQuality, Quality: options.SD}},
		{"quality hd", Command{Kind: CommandQuality, Quality: options.HD}},
		{"audio off", Command{Kind: CommandAudio, Audio: false}},
		{"audio on", Command{Kind: CommandAudio, Audio: true}},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, err := ParseCommand(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandRejects(t *testing.T) {
	for _, payload := range []string{"", "start", "quality", "quality 4K", "audio maybe", "toggle now"} {
		_, err := ParseCommand(payload)
		assert.Error(t, err, payload)
	}
}

func TestCommandApply(t *testing.T) {
	ctrl := &recordingController{}
	for _, payload := range []string{"toggle", "quality SD", "audio off", "toggle"} {
		cmd, err := ParseCommand(payload)
		require.NoError(t, err)
		cmd.Apply(ctrl)
	}
	assert.Equal(t, 2, ctrl.toggles)
	assert.Equal(t, []options.Quality{options.SD}, ctrl.quality)
	assert.Equal(t, []bool{false}, ctrl.audio)
}

func TestBrokerURL(t *testing.T) {
	assert.Equal(t, "tcp://broker.local:1883", BrokerURL("broker.local"))
	assert.Equal(t, "tcp://10.0.0.5:1884", BrokerURL("10.0.0.5:1884"))
	assert.Equal(t, "ssl://broker:8883", BrokerURL("ssl://broker:8883"))
}

func TestTopicsUsePrefix(t *testing.T) {
	m := New(config.MQTTConfig{}, &recordingController{})
	assert.Equal(t, "screenrecorder/command", m.topic("command"))

	m = New(config.MQTTConfig{TopicPrefix: "studio/pc1", ClientID: "pc1"}, &recordingController{})
	assert.Equal(t, "studio/pc1/status", m.topic("status"))
	assert.Equal(t, "pc1", m.clientID())
}

func TestIsPortOpen(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	assert.True(t, IsPortOpen(addr))

	l.Close()
	assert.False(t, IsPortOpen(addr))
}
