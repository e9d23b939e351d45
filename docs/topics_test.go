package docs

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/etnz/pricelog"
	"github.com/etnz/pricelog/config"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestTopics(t *testing.T) {
	// Every topic listed in readme.md loads, and every topic is listed.
	file, err := os.Open("readme.md")
	if err != nil {
		t.Fatalf("failed to open readme.md: %v", err)
	}
	defer file.Close()

	var listed []string
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if matches := topicRegex.FindStringSubmatch(scanner.Text()); len(matches) > 1 {
			listed = append(listed, strings.TrimSpace(matches[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("error scanning readme.md: %v", err)
	}

	for _, topic := range listed {
		if _, err := GetTopic(topic); err != nil {
			t.Errorf("failed to get topic %q: %v", topic, err)
		}
	}

	all, err := GetAllTopics()
	if err != nil {
		t.Fatalf("GetAllTopics() unexpected error: %v", err)
	}
	for _, topic := range all {
		if !slices.Contains(listed, topic) {
			t.Errorf("topic %q is not listed in readme.md", topic)
		}
	}
}

func TestGetTopics(t *testing.T) {
	all, err := GetTopics("*")
	if err != nil {
		t.Fatalf("GetTopics(*) unexpected error: %v", err)
	}
	topics, _ := GetAllTopics()
	for _, topic := range topics {
		content, _ := GetTopic(topic)
		if !strings.Contains(all, content) {
			t.Errorf("GetTopics(*) misses topic %q", topic)
		}
	}
	if _, err := GetTopics("readme", "nope"); err == nil {
		t.Error("GetTopics() of an unknown topic should fail")
	}
}

// Block is a fenced code block of a topic.
type Block struct {
	Lang    string
	Content string
	Line    int
}

// parseMarkdown returns the first level heading and the fenced code blocks of file.
func parseMarkdown(t *testing.T, file string) (string, []Block) {
	t.Helper()
	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}
	root := goldmark.DefaultParser().Parse(text.NewReader(content))

	var title string
	var blocks []Block
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			if n.Level == 1 && title == "" {
				if txt, ok := n.FirstChild().(*ast.Text); ok {
					title = string(txt.Segment.Value(content))
				}
			}
		case *ast.FencedCodeBlock:
			if n.Info == nil {
				return ast.WalkContinue, nil
			}
			var b strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				b.Write(line.Value(content))
			}
			blocks = append(blocks, Block{
				Lang:    string(n.Info.Segment.Value(content)),
				Content: b.String(),
				Line:    lineNumber(content, n.Info.Segment.Start),
			})
		}
		return ast.WalkContinue, nil
	})
	return title, blocks
}

// lineNumber computes the line number of an AST offset.
func lineNumber(source []byte, offset int) int {
	return bytes.Count(source[:offset], []byte{'\n'}) + 1
}

func TestExamples(t *testing.T) {
	// Every topic has a title, and its examples are accepted by plog.
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			title, blocks := parseMarkdown(t, file)
			if title == "" {
				t.Errorf("%s has no title", file)
			}
			for _, block := range blocks {
				if err := checkBlock(t, file, block); err != nil {
					t.Errorf("%s:%d: %s example is invalid: %v", file, block.Line, block.Lang, err)
				}
			}
		})
	}
}

func checkBlock(t *testing.T, file string, block Block) error {
	switch {
	case block.Lang == "toml":
		path := filepath.Join(t.TempDir(), "pricelog.toml")
		if err := os.WriteFile(path, []byte(block.Content), 0644); err != nil {
			return err
		}
		_, err := config.Load(path)
		return err
	case block.Lang == "json" && file == "holdings.md":
		_, err := pricelog.DecodeHoldings(strings.NewReader(block.Content))
		return err
	case block.Lang == "json" && file == "ledger.md":
		s, err := pricelog.DecodeStore(strings.NewReader(block.Content), pricelog.DefaultStoreOptions(), time.UTC)
		if err == nil && s.Len() == 0 {
			t.Errorf("%s:%d: example ledger is empty", file, block.Line)
		}
		return err
	}
	return nil
}
