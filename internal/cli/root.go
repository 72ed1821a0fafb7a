package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sperrystudios/screenrecorder/internal/config"
)

type Dependencies struct {
	Config *config.Config
	Client *Client
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	var server string

	rootCmd := &cobra.Command{
		Use:           "screenrecctl",
		Short:         "Control a running screen recorder",
		Long:          "screenrecctl starts and stops recordings, changes quality and audio, and lists saved recordings through the screen recorder's HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			deps.Client = NewClient(server)
		},
	}

	rootCmd.Version = config.GetProgramVersion()
	rootCmd.PersistentFlags().StringVar(&server, "server", fmt.Sprintf("http://localhost:%d", deps.Config.Port), "address of the screen recorder")

	rootCmd.AddCommand(NewToggleCmd(deps))
	rootCmd.AddCommand(NewStatusCmd(deps))
	rootCmd.AddCommand(NewOptionsCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}
