package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "network [id]",
		Short: "Inspect the association graph",
		Long:  "Show an entry's strongest associations, or the whole adjacency map when no id is given.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runNetwork,
	}

	cmd.Flags().IntP("limit", "l", 10, "Max associations")

	RootCmd.AddCommand(cmd)
}

func runNetwork(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	if len(args) == 0 {
		b, _ := json.MarshalIndent(m.Network().Snapshot(), "", "  ")
		fmt.Println(string(b))
		return
	}

	neighbors := m.Associations(args[0], limit)
	if len(neighbors) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(neighbors, "", "  ")
	fmt.Println(string(b))
}
