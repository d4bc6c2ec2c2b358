package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "forget [id]",
		Short: "Delete a memory",
		Long:  "Delete a memory from whichever tier holds it and strip it from the association graph.",
		Args:  cobra.ExactArgs(1),
		Run:   runForget,
	}

	RootCmd.AddCommand(cmd)
}

func runForget(cmd *cobra.Command, args []string) {
	m, err := openManager(cmd.Context())
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	if !m.Forget(args[0]) {
		exitErr("forget", fmt.Errorf("memory %s not found", args[0]))
	}
	if err := m.Save(cmd.Context()); err != nil {
		exitErr("save", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"id":%q}`+"\n", args[0])
}
