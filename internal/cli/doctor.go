package cli

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sperrystudios/screenrecorder/internal/monitor"
	"github.com/sperrystudios/screenrecorder/internal/permissions"
	"github.com/sperrystudios/screenrecorder/internal/recording"
)

func check(w io.Writer, name string, ok bool, detail string) {
	mark := "ok"
	if !ok {
		mark = "!!"
	}
	fmt.Fprintf(w, "[%s] %-18s %s\n", mark, name, detail)
}

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check ffmpeg, encoders and the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			cfg := deps.Config
			ok := true

			ffmpeg := recording.FindFFmpeg(cfg.FfmpegPath)
			if _, err := exec.LookPath(ffmpeg); err != nil {
				check(w, "ffmpeg", false, "not found. Install FFmpeg or set ffmpegPath in config.toml")
				ok = false
			} else {
				check(w, "ffmpeg", true, ffmpeg)

				probe := recording.NewProbe(ffmpeg)
				candidates, err := probe.H264Candidates()
				switch {
				case err != nil:
					check(w, "H.264 encoders", false, err.Error())
					ok = false
				case len(candidates) == 0:
					check(w, "H.264 encoders", false, "none, recordings use the ffmpeg default encoder")
				default:
					var working []string
					for _, name := range candidates {
						if probe.VerifyEncoder(name) {
							working = append(working, name)
						}
					}
					check(w, "H.264 encoders", len(working) > 0,
						fmt.Sprintf("available: %s; working: %s", strings.Join(candidates, ", "), strings.Join(working, ", ")))
				}
			}

			if err := permissions.CheckWritable(cfg.OutputDir); err != nil {
				check(w, "Output directory", false, err.Error())
				ok = false
			} else {
				check(w, "Output directory", true, cfg.OutputDir)
			}

			addr := fmt.Sprintf("localhost:%d", cfg.Port)
			check(w, "Recorder app", monitor.IsPortOpen(addr), addr)

			if cfg.MQTT.Broker != "" {
				broker := strings.TrimPrefix(monitor.BrokerURL(cfg.MQTT.Broker), "tcp://")
				reachable := !strings.Contains(broker, "://") && monitor.IsPortOpen(broker)
				check(w, "MQTT broker", reachable, cfg.MQTT.Broker)
			}

			if ok {
				fmt.Fprintln(w, "\nAll prerequisites met. Ready to record!")
			} else {
				fmt.Fprintln(w, "\nSome prerequisites are missing.")
			}
			return nil
		},
	}
}
