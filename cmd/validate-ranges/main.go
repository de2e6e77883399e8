package main

import (
	"fmt"
	"os"

	"github.com/marcelsud/sms-inbox/gate"
)

/* validate-ranges - Standalone CLI tool to validate ranges.yaml
 * Usage: go run cmd/validate-ranges/main.go [ranges.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	// Get ranges file path from args or use default
	rangesFile := "ranges.yaml"
	if len(os.Args) > 1 {
		rangesFile = os.Args[1]
	}

	fmt.Printf("Validating ranges file: %s\n", rangesFile)

	ranges, err := gate.LoadRanges(rangesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Success - print loaded ranges
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d provider range(s):\n", len(ranges.Ranges))

	for i, r := range ranges.Ranges {
		fmt.Printf("\n%d. %s\n", i+1, r)
	}

	fmt.Printf("\nStrict mode: %v\n", ranges.Strict)
	fmt.Printf("\n✓ All ranges are valid!\n")
	os.Exit(0)
}
