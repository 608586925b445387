// Command ospfdtest runs the end-to-end scenarios spec.md §8 describes
// against the ospf package, standing in for the source's own TestMain-based
// test binary (test_routing.cc's -t/-f driven main()).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func openDump(path string) (*os.File, error) {
	return os.Open(path)
}

func main() {
	var (
		testName string
		filename string
	)

	root := &cobra.Command{
		Use:   "ospfdtest",
		Short: "Run ospf package end-to-end scenarios",
		Long: "ospfdtest drives the ospf package's AreaRouter/PeerManager through the\n" +
			"scenarios spec.md §8 names. With no -t/--test flag every scenario runs.\n" +
			"Exit code 0 iff every selected scenario passes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := selectScenarios(testName)
			if err != nil {
				return err
			}

			var failed []string
			for _, sc := range selected {
				if err := sc.run(filename); err != nil {
					fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", sc.name, err)
					failed = append(failed, sc.name)
					continue
				}
				fmt.Fprintf(os.Stdout, "PASS %s\n", sc.name)
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d scenario(s) failed: %v", len(failed), failed)
			}
			return nil
		},
	}

	root.Flags().StringVarP(&testName, "test", "t", "", "run only the named scenario (default: run all)")
	root.Flags().StringVarP(&filename, "filename", "f", "", "TLV dump file for the replay scenario")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func selectScenarios(name string) ([]scenario, error) {
	if name == "" {
		return scenarios, nil
	}
	for _, sc := range scenarios {
		if sc.name == name {
			return []scenario{sc}, nil
		}
	}
	return nil, fmt.Errorf("unknown scenario %q", name)
}
