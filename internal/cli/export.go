package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the long-term store as JSON",
		Long:  "Write the persisted document (entries plus associations) to stdout.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	b, _ := json.MarshalIndent(m.Snapshot(), "", "  ")
	fmt.Println(string(b))
}
