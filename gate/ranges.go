package gate

import (
	"fmt"
	"net/netip"
	"os"

	"gopkg.in/yaml.v3"
)

/* RangesFile is the on-disk provider ranges configuration (ranges.yaml)
 * Keeping the allow-list in a file lets operators update provider CIDRs
 * without a rebuild
 */
type RangesFile struct {
	Ranges []string `yaml:"ranges"`
	Strict bool     `yaml:"strict"`
}

// LoadRanges reads and validates a provider ranges YAML file
func LoadRanges(filePath string) (RangesFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return RangesFile{}, fmt.Errorf("reading ranges file: %w", err)
	}

	var file RangesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return RangesFile{}, fmt.Errorf("parsing ranges YAML: %w", err)
	}

	if len(file.Ranges) == 0 {
		return RangesFile{}, fmt.Errorf("ranges file declares no ranges")
	}

	for _, r := range file.Ranges {
		if _, err := netip.ParsePrefix(r); err != nil {
			return RangesFile{}, fmt.Errorf("validating range %q: %w", r, err)
		}
	}

	return file, nil
}
