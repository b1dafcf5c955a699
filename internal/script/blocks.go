package script

import "strings"

// Block is a named, contiguous run of script lines. Grounded on
// original_source/runner.py's block-splitting pass: only a line beginning
// "// Test" starts a new named block (a plain explanatory comment line does
// not); everything before the first such line (if any) belongs to a leading
// block named "Test".
type Block struct {
	Name  string
	Lines []string
}

// Split partitions a script's lines into named blocks exactly as
// original_source/runner.py does: a line whose trimmed text begins with
// "// Test" opens a new block named by stripping every leading "/" and
// surrounding whitespace from that line (an empty result after stripping
// still yields a usable, if blank, name). Any other comment line is left in
// place as ordinary script content, so a standalone explanatory comment
// between commands does not fracture a block. The header line itself is
// kept as the first line of its block. Lines preceding the first header
// form a leading block named "Test".
func Split(lines []string) []Block {
	var blocks []Block
	name := "Test"
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		blocks = append(blocks, Block{Name: name, Lines: current})
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "// Test") {
			flush()
			current = nil
			name = strings.TrimSpace(strings.TrimLeft(trimmed, "/"))
			if name == "" {
				name = "Test"
			}
		}
		current = append(current, line)
	}
	flush()

	return blocks
}
