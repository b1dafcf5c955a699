package script

import "testing"

func TestSplit_LeadingBlockDefaultsToTest(t *testing.T) {
	lines := []string{
		"begin(T1)",
		"R(T1, x1)",
	}
	blocks := Split(lines)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].Name != "Test" {
		t.Fatalf("leading block name = %q, want %q", blocks[0].Name, "Test")
	}
	if len(blocks[0].Lines) != 2 {
		t.Fatalf("leading block has %d lines, want 2", len(blocks[0].Lines))
	}
}

func TestSplit_NamedHeadersStartNewBlocks(t *testing.T) {
	lines := []string{
		"// Test First scenario",
		"begin(T1)",
		"end(T1)",
		"// Test Second scenario",
		"begin(T2)",
		"end(T2)",
	}
	blocks := Split(lines)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[0].Name != "Test First scenario" {
		t.Fatalf("block 0 name = %q, want %q", blocks[0].Name, "Test First scenario")
	}
	if blocks[1].Name != "Test Second scenario" {
		t.Fatalf("block 1 name = %q, want %q", blocks[1].Name, "Test Second scenario")
	}
	if len(blocks[0].Lines) != 3 || blocks[0].Lines[0] != "// Test First scenario" {
		t.Fatalf("block 0 lines = %v, want header kept as first line", blocks[0].Lines)
	}
}

func TestSplit_PlainCommentDoesNotFractureABlock(t *testing.T) {
	lines := []string{
		"begin(T1)",
		"// a standalone explanatory comment, not a block header",
		"W(T1, x1, 5)",
		"end(T1)",
	}
	blocks := Split(lines)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].Name != "Test" {
		t.Fatalf("block name = %q, want %q", blocks[0].Name, "Test")
	}
	if len(blocks[0].Lines) != 4 {
		t.Fatalf("block has %d lines, want 4", len(blocks[0].Lines))
	}
}

func TestSplit_EmptyInputYieldsNoBlocks(t *testing.T) {
	if blocks := Split(nil); len(blocks) != 0 {
		t.Fatalf("got %d blocks for empty input, want 0", len(blocks))
	}
}
