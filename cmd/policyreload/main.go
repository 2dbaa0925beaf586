// Command policyreload loads a corridor policy file, validates its shape,
// and prints the resolved rule set for a given source/target corridor —
// a standalone check an operator runs before rolling out a policy change.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"visadirect-sdk-go/internal/corridor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "", "path to a corridor-policy.json file (empty searches policy/ under the working directory and its two parents, then uses the embedded default)")
	source := flag.String("source", "", "source country code")
	target := flag.String("target", "", "target country code")
	sourceCurrency := flag.String("source-currency", "", "optional source currency pin")
	targetCurrency := flag.String("target-currency", "", "optional target currency pin")
	flag.Parse()

	if *source == "" || *target == "" {
		return fmt.Errorf("both -source and -target are required")
	}

	policy, err := corridor.Load(*file)
	if err != nil {
		return fmt.Errorf("load corridor policy: %w", err)
	}

	fmt.Printf("loaded policy version %q with %d corridor(s)\n", policy.Version, len(policy.Corridors))

	rules, err := corridor.GetRules(policy, *source, *target, *sourceCurrency, *targetCurrency)
	if err != nil {
		return fmt.Errorf("resolve corridor %s -> %s: %w", *source, *target, err)
	}

	encoded, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return fmt.Errorf("encode resolved rules: %w", err)
	}

	fmt.Println(string(encoded))
	return nil
}
