package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sperrystudios/screenrecorder/internal/httpServer"
	"github.com/sperrystudios/screenrecorder/internal/options"
)

func printStatus(w io.Writer, s httpServer.StatusResponse) {
	fmt.Fprintf(w, "State:   %s\n", s.State)
	fmt.Fprintf(w, "Button:  %s\n", s.Label)
	fmt.Fprintf(w, "Quality: %s\n", s.Quality)
	fmt.Fprintf(w, "Audio:   %s\n", onOff(s.Audio))
	if s.Status.Text != "" {
		fmt.Fprintf(w, "Status:  %s (%s)\n", s.Status.Text, s.Status.Code)
	}
	if s.Status.Path != "" {
		fmt.Fprintf(w, "File:    %s\n", s.Status.Path)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func NewToggleCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Start or stop recording, like pressing the button",
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := deps.Client.Toggle(cmd.Context())
			if err != nil {
				return err
			}
			if before.State == "recording" {
				fmt.Fprintln(cmd.OutOrStdout(), "Stopping recording")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Starting recording, answer any prompt on the recorder's screen")
			}
			return nil
		},
	}
}

func NewStatusCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the recorder state and current options",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := deps.Client.Status(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func NewOptionsCmd(deps *Dependencies) *cobra.Command {
	var quality string
	var audio string

	cmd := &cobra.Command{
		Use:   "options",
		Short: "Change quality and audio for the next recording",
		Example: "  screenrecctl options --quality SD\n" +
			"  screenrecctl options --audio off",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req httpServer.OptionsRequest
			if cmd.Flags().Changed("quality") {
				q, err := options.ParseQuality(quality)
				if err != nil {
					return err
				}
				s := q.String()
				req.Quality = &s
			}
			if cmd.Flags().Changed("audio") {
				switch audio {
				case "on", "true":
					v := true
					req.Audio = &v
				case "off", "false":
					v := false
					req.Audio = &v
				default:
					return fmt.Errorf("--audio expects on or off, got %q", audio)
				}
			}
			if req.Quality == nil && req.Audio == nil {
				return fmt.Errorf("nothing to change, use --quality or --audio")
			}

			got, err := deps.Client.SetOptions(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Quality: %s\nAudio:   %s\n", got.Quality, onOff(got.Audio))
			return nil
		},
	}

	cmd.Flags().StringVar(&quality, "quality", "", "HD or SD")
	cmd.Flags().StringVar(&audio, "audio", "", "on or off")
	return cmd
}

func NewListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := deps.Client.Recordings(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(w, "No recordings found")
				return nil
			}
			for _, r := range recs {
				fmt.Fprintf(w, "%-40s %10s  %s\n", r.Name, humanSize(r.Size), r.ModTime.Format(time.DateTime))
			}
			return nil
		},
	}
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
