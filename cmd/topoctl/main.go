package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/topology-engine/factfile"
	"github.com/signalsfoundry/topology-engine/graph"
	"github.com/signalsfoundry/topology-engine/routing"
	"github.com/signalsfoundry/topology-engine/topology"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var factsPath string

	root := &cobra.Command{
		Use:           "topoctl",
		Short:         "Query a static topology fact file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&factsPath, "facts", "topology.yaml", "fact document (YAML or JSON)")

	root.AddCommand(newValidateCmd(&factsPath))
	root.AddCommand(newNeighborsCmd(&factsPath))
	root.AddCommand(newPathCmd(&factsPath))
	root.AddCommand(newResolveCmd(&factsPath))
	root.AddCommand(newBestSourceCmd(&factsPath))
	return root
}

// loadSnapshot decodes and commits the fact file. Rejected loads come
// back as a *topology.RejectError carrying the full issue list.
func loadSnapshot(factsPath string) (*topology.Snapshot, error) {
	facts, err := factfile.DecodeFile(factsPath)
	if err != nil {
		return nil, err
	}
	return topology.Load(context.Background(), facts)
}

func newValidateCmd(factsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the fact file and report every issue found",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := loadSnapshot(*factsPath)
			if err != nil {
				var reject *topology.RejectError
				if errors.As(err, &reject) {
					for _, issue := range reject.Issues {
						cmd.PrintErrln(issue)
					}
					return fmt.Errorf("rejected: %d issue(s)", len(reject.Issues))
				}
				return err
			}

			for _, issue := range snap.Warnings() {
				cmd.PrintErrln(issue)
			}
			store := snap.Store()
			cmd.Printf("ok: %d nodes, %d interfaces, %d links, %d warnings\n",
				len(store.Nodes()), len(store.Interfaces()), len(store.Links()), len(snap.Warnings()))
			return nil
		},
	}
}

func newNeighborsCmd(factsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "neighbors NODE",
		Short: "List the nodes adjacent to NODE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(*factsPath)
			if err != nil {
				return err
			}
			neighbors, err := graph.Build(snap).Neighbors(args[0])
			if err != nil {
				return err
			}
			for _, n := range neighbors {
				cmd.Println(n)
			}
			return nil
		},
	}
}

func newPathCmd(factsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path SRC DST",
		Short: "Print the shortest path between two nodes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(*factsPath)
			if err != nil {
				return err
			}
			path, err := graph.Build(snap).ShortestPath(args[0], args[1])
			if err != nil {
				return err
			}
			cmd.Println(strings.Join(path, " -> "))
			return nil
		},
	}
}

func newResolveCmd(factsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve NODE",
		Short: "Print the effective admin distance per protocol for NODE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(*factsPath)
			if err != nil {
				return err
			}
			distances, err := routing.EffectiveDistances(snap, args[0])
			if err != nil {
				return err
			}

			protocols := make([]string, 0, len(distances))
			for protocol := range distances {
				protocols = append(protocols, protocol)
			}
			sort.Strings(protocols)
			for _, protocol := range protocols {
				cmd.Printf("%s\t%d\n", protocol, distances[protocol])
			}
			return nil
		},
	}
}

func newBestSourceCmd(factsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "best-source NODE",
		Short: "Print the most trusted routing source for NODE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadSnapshot(*factsPath)
			if err != nil {
				return err
			}
			best, err := routing.BestSource(snap, args[0])
			if err != nil {
				return err
			}
			cmd.Println(best)
			return nil
		},
	}
}
