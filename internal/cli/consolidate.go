package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Run the session-boundary consolidation",
		Long: "Promote heavily used working-set entries into long-term storage, decay " +
			"associations, prune stale long-term entries, clear the fleeting tier and save.",
		Run: runConsolidate,
	}

	RootCmd.AddCommand(cmd)
}

func runConsolidate(cmd *cobra.Command, args []string) {
	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	promoted, err := m.Consolidate(cmd.Context())
	if err != nil {
		exitErr("consolidate", err)
	}

	fmt.Printf(`{"promoted":%d}`+"\n", promoted)
}
