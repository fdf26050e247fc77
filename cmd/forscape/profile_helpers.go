package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"forscape/internal/prof"
)

var profSession *prof.Session

func addProfileFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	cmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
}

// setupProfiling enables the profilers requested by the persistent flags.
func setupProfiling(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	cpuProfile, err := flags.GetString("cpu-profile")
	if err != nil {
		return fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := flags.GetString("mem-profile")
	if err != nil {
		return fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if cpuProfile == "" && memProfile == "" {
		return nil
	}
	session, err := prof.Start(cpuProfile, memProfile)
	if err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}
	profSession = session
	return nil
}

func stopProfiling(errOut io.Writer) {
	if profSession == nil {
		return
	}
	if err := profSession.Stop(); err != nil {
		fmt.Fprintf(errOut, "profile: %v\n", err)
	}
	profSession = nil
}
