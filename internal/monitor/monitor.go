package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sperrystudios/screenrecorder/internal/config"
	"github.com/sperrystudios/screenrecorder/internal/iputils"
	"github.com/sperrystudios/screenrecorder/internal/library"
	"github.com/sperrystudios/screenrecorder/internal/logging"
	"github.com/sperrystudios/screenrecorder/internal/options"
	"github.com/sperrystudios/screenrecorder/internal/status"
)

// Controller receives the commands arriving over MQTT.
type Controller interface {
	Toggle()
	SetQuality(options.Quality)
	SetAudioEnabled(bool)
}

type CommandKind int

const (
	CommandToggle CommandKind = iota
	CommandQuality
	CommandAudio
)

type Command struct {
	Kind    CommandKind
	Quality options.Quality
	Audio   bool
}

// SavedMessage is published on <prefix>/saved for every new recording.
type SavedMessage struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Size int64     `json:"size"`
	Time time.Time `json:"time"`
}

// ParseCommand reads "toggle", "quality HD|SD" or "audio on|off".
func ParseCommand(payload string) (Command, error) {
	fields := strings.Fields(strings.ToLower(payload))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	switch fields[0] {
	case "toggle":
		if len(fields) != 1 {
			return Command{}, fmt.Errorf("toggle takes no argument")
		}
		return Command{Kind: CommandToggle}, nil
	case "quality":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("usage: quality HD|SD")
		}
		q, err := options.ParseQuality(fields[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CommandQuality, Quality: q}, nil
	case "audio":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("usage: audio on|off")
		}
		switch fields[1] {
		case "on", "true", "1":
			return Command{Kind: CommandAudio, Audio: true}, nil
		case "off", "false", "0":
			return Command{Kind: CommandAudio, Audio: false}, nil
		}
		return Command{}, fmt.Errorf("audio expects on or off, got %q", fields[1])
	}
	return Command{}, fmt.Errorf("unknown command %q", fields[0])
}

// Apply hands the command to the controller.
func (c Command) Apply(ctrl Controller) {
	switch c.Kind {
	case CommandToggle:
		ctrl.Toggle()
	case CommandQuality:
		ctrl.SetQuality(c.Quality)
	case CommandAudio:
		ctrl.SetAudioEnabled(c.Audio)
	}
}

// Monitor connects to the MQTT broker, takes commands from <prefix>/command
// and publishes the recorder status.
type Monitor struct {
	cfg    config.MQTTConfig
	ctrl   Controller
	client mqtt.Client
}

func New(cfg config.MQTTConfig, ctrl Controller) *Monitor {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "screenrecorder"
	}
	return &Monitor{cfg: cfg, ctrl: ctrl}
}

func (m *Monitor) topic(name string) string {
	return m.cfg.TopicPrefix + "/" + name
}

// BrokerURL accepts "host", "host:port" or a full URL.
func BrokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	if _, _, err := net.SplitHostPort(broker); err == nil {
		return "tcp://" + broker
	}
	return fmt.Sprintf("tcp://%s:1883", broker)
}

func (m *Monitor) clientID() string {
	if m.cfg.ClientID != "" {
		return m.cfg.ClientID
	}
	ips, err := iputils.GetLocalIPv4Addresses()
	if err != nil || len(ips) == 0 {
		logging.WarningLogger.Printf("Failed to get local IP address for MQTT client id: %v", err)
		return fmt.Sprintf("screenrecorder-%d", time.Now().UnixNano())
	}
	return "screenrecorder-" + ips[0]
}

// Run connects, subscribes and forwards status and saved recordings until ctx
// is done.
func (m *Monitor) Run(ctx context.Context, hub *status.Hub, index *library.Index) error {
	address := BrokerURL(m.cfg.Broker)
	opts := mqtt.NewClientOptions().AddBroker(address)
	opts.SetClientID(m.clientID())
	opts.SetResumeSubs(true) // Ensure subscriptions are resumed on reconnect
	opts.SetAutoReconnect(true)
	opts.SetWill(m.topic("status"), `{"code":"OFFLINE"}`, 0, true)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		logging.InfoLogger.Printf("Subscribing to topic %s", m.topic("command"))
		if token := c.Subscribe(m.topic("command"), 0, m.messageHandler()); token.Wait() && token.Error() != nil {
			logging.ErrorLogger.Printf("Failed to subscribe to topic %s: %v", m.topic("command"), token.Error())
		}
	})

	m.client = mqtt.NewClient(opts)
	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker %s: %w", address, token.Error())
	}
	logging.InfoLogger.Printf("MQTT monitoring started on %s", address)

	index.Subscribe(func(c library.Change) {
		if c.Kind == library.Added {
			m.PublishSaved(c.Recording)
		}
	})

	updates := hub.Subscribe()
	m.PublishStatus(hub.Last())
	for {
		select {
		case <-ctx.Done():
			m.client.Disconnect(250)
			logging.InfoLogger.Println("MQTT monitoring stopped")
			return nil
		case msg := <-updates:
			m.PublishStatus(msg)
		}
	}
}

func (m *Monitor) messageHandler() mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		payload := string(msg.Payload())
		logging.InfoLogger.Printf("Handling command message: %s", payload)
		cmd, err := ParseCommand(payload)
		if err != nil {
			logging.WarningLogger.Printf("Ignoring MQTT command %q: %v", payload, err)
			return
		}
		cmd.Apply(m.ctrl)
	}
}

func (m *Monitor) publish(topic string, retained bool, v interface{}) {
	if m.client == nil || !m.client.IsConnected() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logging.ErrorLogger.Printf("Error encoding %s message: %v", topic, err)
		return
	}
	token := m.client.Publish(topic, 0, retained, data)
	if token.Wait() && token.Error() != nil {
		logging.ErrorLogger.Printf("Failed to publish %s: %v", topic, token.Error())
	}
}

func (m *Monitor) PublishStatus(msg status.Message) {
	m.publish(m.topic("status"), true, msg)
}

func (m *Monitor) PublishSaved(rec library.Recording) {
	m.publish(m.topic("saved"), false, SavedMessage{
		Name: rec.Name,
		Path: rec.Path,
		Size: rec.Size,
		Time: rec.ModTime,
	})
}

// IsPortOpen checks if a TCP port is open on the given address
func IsPortOpen(address string) bool {
	conn, err := net.DialTimeout("tcp", address, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
