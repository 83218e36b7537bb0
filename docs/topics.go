// Package docs holds the user documentation of pfc, one markdown file per
// topic. readme.md is the entry point and lists every other topic.
package docs

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strings"
)

//go:embed *.md
var docs embed.FS

// Readme is the topic listing all the others.
const Readme = "readme"

// All expands to every topic.
const All = "*"

// topicLine matches a "* topic: description" line of the readme.
var topicLine = regexp.MustCompile(`^\*\s+([a-z]+):\s*(.*)$`)

// GetTopic returns the content of a documentation topic, or of all topics
// when topic is All.
func GetTopic(topic string) (string, error) {
	if topic == All {
		return GetTopics(All)
	}
	content, err := docs.ReadFile(topic + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found: %w", topic, err)
	}
	return string(content), nil
}

// GetTopics returns the content of topics, each followed by a blank line.
func GetTopics(topics ...string) (string, error) {
	var expanded []string
	for _, topic := range topics {
		if topic != All {
			expanded = append(expanded, topic)
			continue
		}
		all, err := GetAllTopics()
		if err != nil {
			return "", err
		}
		expanded = append(expanded, all...)
	}

	var b strings.Builder
	for _, topic := range expanded {
		content, err := docs.ReadFile(topic + ".md")
		if err != nil {
			return "", fmt.Errorf("topic %q not found: %w", topic, err)
		}
		b.Write(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// GetAllTopics returns the sorted names of all topics but the readme.
func GetAllTopics() ([]string, error) {
	files, err := fs.Glob(docs, "*.md")
	if err != nil {
		return nil, err
	}
	var topics []string
	for _, f := range files {
		if name := strings.TrimSuffix(path.Base(f), ".md"); name != Readme {
			topics = append(topics, name)
		}
	}
	slices.Sort(topics)
	return topics, nil
}

// Summaries returns the one line description of each topic, as listed in
// the readme.
func Summaries() (map[string]string, error) {
	f, err := docs.Open(Readme + ".md")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if m := topicLine.FindStringSubmatch(scanner.Text()); m != nil {
			out[m[1]] = m[2]
		}
	}
	return out, scanner.Err()
}
