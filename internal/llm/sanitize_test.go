package llm

import "testing"

func TestExtractCodeStripsPythonFence(t *testing.T) {
	in := "```python\nimport pandas as pd\nprint(pd.__version__)\n```"
	want := "import pandas as pd\nprint(pd.__version__)"
	if got := ExtractCode(in); got != want {
		t.Fatalf("got %q", got)
	}
}

func TestExtractCodeStripsBareFence(t *testing.T) {
	in := "```\nprint('hi')\n```"
	if got := ExtractCode(in); got != "print('hi')" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractCodeIgnoresSurroundingProse(t *testing.T) {
	in := "Here is the script you asked for:\n\n```python\nx = 1\n```\n\nLet me know if it helps."
	if got := ExtractCode(in); got != "x = 1" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractCodeTakesFirstBlock(t *testing.T) {
	in := "```python\nfirst = True\n```\nand then\n```python\nsecond = True\n```"
	if got := ExtractCode(in); got != "first = True" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractCodeWithoutFenceTrims(t *testing.T) {
	in := "\n  print('raw')  \n"
	if got := ExtractCode(in); got != "print('raw')" {
		t.Fatalf("got %q", got)
	}
}
