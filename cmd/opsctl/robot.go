package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/asakaida/telops/internal/robot"
	"github.com/spf13/cobra"
)

var robotOut string

var robotCmd = &cobra.Command{
	Use:   "robot",
	Short: "Build and check action lists for the automation service",
	// action lists are local files, no configuration needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var robotNewCmd = &cobra.Command{
	Use:   "new <url>",
	Short: "Start an empty action list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := robot.New(args[0]).Build()
		if err != nil {
			return err
		}
		if robotOut == "" {
			return list.Encode(cmd.OutOrStdout())
		}
		return writeList(robotOut, list)
	},
}

var robotValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check an action list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := readList(args[0])
		if err != nil {
			return err
		}
		xpath := 0
		for _, a := range list.Actions {
			if a.Selector != "" && robot.SelectorKind(a.Selector) == robot.XPath {
				xpath++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d actions (%d xpath, %d css) on %s\n",
			args[0], len(list.Actions), xpath, len(list.Actions)-xpath, list.URL)
		return nil
	},
}

var robotAddCmd = &cobra.Command{
	Use:   "add <file> <type> <selector> [value]",
	Short: "Append an action to a list",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := readList(args[0])
		if err != nil {
			return err
		}
		action, err := robot.ParseAction(args[1], args[2], args[3:]...)
		if err != nil {
			return err
		}
		if err := list.Add(action); err != nil {
			return err
		}
		return writeList(args[0], list)
	},
}

func init() {
	robotNewCmd.Flags().StringVarP(&robotOut, "output", "o", "", "Write to file instead of stdout")

	robotCmd.AddCommand(robotNewCmd)
	robotCmd.AddCommand(robotValidateCmd)
	robotCmd.AddCommand(robotAddCmd)
}

func readList(path string) (*robot.ActionList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open action list: %w", err)
	}
	defer f.Close()
	return robot.Decode(f)
}

func writeList(path string, list *robot.ActionList) error {
	var buf bytes.Buffer
	if err := list.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write action list: %w", err)
	}
	return nil
}
