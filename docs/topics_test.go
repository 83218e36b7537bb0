package docs

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	bashSetup    = "bash setup"
	bashRun      = "bash run"
	consoleCheck = "console check"
	bashCheck    = "bash check"
)

func TestTopics(t *testing.T) {
	summaries, err := Summaries()
	if err != nil {
		t.Fatalf("Summaries() failed: %v", err)
	}
	all, err := GetAllTopics()
	if err != nil {
		t.Fatalf("GetAllTopics() failed: %v", err)
	}

	// every topic listed in the readme can be loaded.
	for topic, summary := range summaries {
		t.Run("load_"+topic, func(t *testing.T) {
			if _, err := GetTopic(topic); err != nil {
				t.Errorf("GetTopic(%q) failed: %v", topic, err)
			}
			if summary == "" {
				t.Errorf("topic %q has no description in readme.md", topic)
			}
		})
	}

	// every topic file is listed in the readme.
	for _, topic := range all {
		if _, ok := summaries[topic]; !ok {
			t.Errorf("topic %q is not listed in readme.md", topic)
		}
	}
}

func TestGetTopics(t *testing.T) {
	all, err := GetAllTopics()
	if err != nil {
		t.Fatal(err)
	}
	if slices.Contains(all, Readme) {
		t.Errorf("GetAllTopics() = %v, must not contain %q", all, Readme)
	}
	if !slices.IsSorted(all) {
		t.Errorf("GetAllTopics() = %v, want sorted", all)
	}

	star, err := GetTopic(All)
	if err != nil {
		t.Fatal(err)
	}
	for _, topic := range all {
		content, _ := GetTopic(topic)
		if !strings.Contains(star, content) {
			t.Errorf("GetTopic(%q) does not contain topic %q", All, topic)
		}
	}

	if _, err := GetTopics("chart", "nope"); err == nil {
		t.Errorf("GetTopics(\"nope\") returned no error")
	}
}

func TestCodeBlocks(t *testing.T) {
	if testing.Short() {
		t.Skip("builds pfc")
	}
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	files = append(files, "../README.md")

	pfc := buildPfc(t, t.TempDir())
	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			runBlocks(t, pfc, file)
		})
	}
}

// Block represents a fenced code block in the markdown file.
type Block struct {
	Type    string
	Content string
	File    string
	Line    int
}

// buildPfc builds the pfc executable in dir and returns its path.
func buildPfc(t *testing.T, dir string) string {
	t.Helper()
	output := filepath.Join(dir, "pfc")
	if out, err := exec.Command("go", "build", "-o", output, "../pfc/").CombinedOutput(); err != nil {
		t.Fatalf("failed to build pfc: %v\n%s", err, out)
	}
	return output
}

// parseMarkdown returns the executable code blocks of file.
func parseMarkdown(t *testing.T, file string) []*Block {
	t.Helper()

	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}
	root := goldmark.DefaultParser().Parse(text.NewReader(content))

	var blocks []*Block
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok || fcb.Info == nil {
			return ast.WalkContinue, nil
		}
		lang := string(fcb.Info.Segment.Value(content))
		switch lang {
		case bashCheck, bashSetup, bashRun, consoleCheck:
		default:
			return ast.WalkContinue, nil
		}

		var b strings.Builder
		for i := 0; i < fcb.Lines().Len(); i++ {
			line := fcb.Lines().At(i)
			b.Write(line.Value(content))
		}
		blocks = append(blocks, &Block{
			Type:    lang,
			Content: b.String(),
			File:    file,
			Line:    bytes.Count(content[:fcb.Info.Segment.Start], []byte{'\n'}) + 1,
		})
		return ast.WalkContinue, nil
	})
	return blocks
}

// blockRunner runs the blocks of a file in order. A setup block starts a new
// scenario in a new working directory.
type blockRunner struct {
	env            []string
	previousOutput string
	dir            string
}

func (r *blockRunner) runBlock(t *testing.T, block *Block) {
	t.Helper()

	if block.Type == consoleCheck {
		want := strings.TrimSpace(block.Content)
		got := strings.TrimSpace(r.previousOutput)
		if want != got {
			t.Errorf("%s:%d: output mismatch:\ngot:\n\n%s\n\nwant:\n\n%s\n\ngot :%q\nwant:%q\n", block.File, block.Line, got, want, got, want)
		}
		return
	}
	if block.Type == bashSetup {
		r.dir = t.TempDir()
	}

	cmd := exec.Command("bash", "-c", "set -e; "+block.Content)
	cmd.Dir = r.dir
	cmd.Env = r.env
	output, err := cmd.CombinedOutput()
	if block.Type == bashRun {
		r.previousOutput = string(output)
	}
	if err == nil {
		return
	}
	switch block.Type {
	case bashSetup, bashRun:
		t.Fatalf("%s:%d: %s failed: %v with output:\n%s\n", block.File, block.Line, block.Type, err, output)
	default:
		t.Errorf("%s:%d: %s failed: %v with output:\n%s\n", block.File, block.Line, block.Type, err, output)
	}
}

// runBlocks executes the scenarios of file with pfc on the PATH.
func runBlocks(t *testing.T, pfc, file string) {
	t.Helper()

	blocks := parseMarkdown(t, file)
	if len(blocks) == 0 {
		return
	}

	var env []string
	for _, kv := range os.Environ() {
		// the scenarios run on the default configuration.
		if strings.HasPrefix(kv, "PFC_") || strings.HasPrefix(kv, "DATABASE_URL=") || strings.HasPrefix(kv, "PATH=") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, "PATH="+filepath.Dir(pfc)+string(os.PathListSeparator)+os.Getenv("PATH"))

	r := blockRunner{env: env, dir: t.TempDir()}
	for _, block := range blocks {
		r.runBlock(t, block)
	}
}
