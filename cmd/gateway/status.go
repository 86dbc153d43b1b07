package gateway

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"codegateway/internal/status"
)

var flagAttach string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "attach a terminal dashboard to a running gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagAttach
		if path == "" {
			path = filepath.Join(os.TempDir(), "codegateway-status.json")
		}
		program := tea.NewProgram(status.NewModel(path))
		_, err := program.Run()
		return err
	},
}

func init() {
	statusCmd.Flags().StringVar(&flagAttach, "attach", "", "path to the status snapshot file (defaults to the standard temp location)")
}
