// Package parser turns raw submission markdown into a normalized
// PostRequest. Parsing is a pure transformation: no filesystem or
// network access happens here.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"postpilot/internal/core/domain"
)

var (
	frontmatterRe = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n`)

	// The body heading differs by kind: "Post Content" for text and
	// image posts, "Post Caption" for carousels.
	bodyRe = regexp.MustCompile(`(?s)## Post (?:Content|Caption)\r?\n\r?\n(.*?)(?:\r?\n## |\z)`)
)

// Parse extracts a PostRequest from a submission file's text. It fails
// with domain.ErrMalformedSubmission when the frontmatter block is
// missing or not key/value shaped, when the declared type is unknown,
// or when the body section is absent or empty.
func Parse(text string) (domain.PostRequest, error) {
	var req domain.PostRequest

	m := frontmatterRe.FindStringSubmatch(text)
	if m == nil {
		return req, fmt.Errorf("%w: no frontmatter block", domain.ErrMalformedSubmission)
	}

	header, err := parseHeader(m[1])
	if err != nil {
		return req, err
	}

	kind, err := parseKind(header["type"])
	if err != nil {
		return req, err
	}

	body := ""
	if bm := bodyRe.FindStringSubmatch(text); bm != nil {
		body = strings.TrimSpace(bm[1])
	}
	if body == "" {
		return req, fmt.Errorf("%w: empty body section", domain.ErrMalformedSubmission)
	}

	topic := header["topic"]
	if topic == "" {
		topic = "Unknown"
	}

	req = domain.PostRequest{
		Kind:     kind,
		Topic:    topic,
		Body:     body,
		Tags:     parseTags(header["hashtags"]),
		BestTime: header["best_time"],
	}
	switch kind {
	case domain.KindImage:
		req.MediaPath = header["image_path"]
	case domain.KindCarousel:
		req.MediaPath = header["pdf_path"]
	}
	return req, nil
}

func parseHeader(block string) (map[string]string, error) {
	header := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: header line %q is not key: value", domain.ErrMalformedSubmission, line)
		}
		header[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	return header, nil
}

func parseKind(raw string) (domain.PostKind, error) {
	switch raw {
	case "", string(domain.KindText):
		return domain.KindText, nil
	case string(domain.KindImage):
		return domain.KindImage, nil
	case string(domain.KindCarousel):
		return domain.KindCarousel, nil
	default:
		return "", fmt.Errorf("%w: unknown type %q", domain.ErrMalformedSubmission, raw)
	}
}

// parseTags splits a comma-separated tag field, trimming whitespace and
// a single leading marker character per tag. Empty entries are dropped.
func parseTags(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimPrefix(strings.TrimSpace(part), "#")
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
