// Package slackbot posts status digests to a Slack channel.
package slackbot

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Slack rejects section text longer than this.
const maxSectionChars = 3000

var (
	boldTokenRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	headingRe   = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
)

type Poster struct {
	api       *slack.Client
	channelID string
	log       *zap.Logger
}

// NewPoster builds a poster for channelID. Extra options are passed to the
// Slack client (tests point slack.OptionAPIURL at a fake server).
func NewPoster(token, channelID string, httpClient *http.Client, log *zap.Logger, opts ...slack.Option) *Poster {
	if httpClient != nil {
		opts = append([]slack.Option{slack.OptionHTTPClient(httpClient)}, opts...)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poster{
		api:       slack.New(token, opts...),
		channelID: channelID,
		log:       log,
	}
}

// PostDigest converts the markdown digest to Slack mrkdwn and posts it as
// section blocks. It returns the message timestamp.
func (p *Poster) PostDigest(ctx context.Context, markdown string) (string, error) {
	text := ToMrkdwn(markdown)
	var blocks []slack.Block
	for _, part := range splitSections(text, maxSectionChars) {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, part, false, false),
			nil, nil,
		))
	}
	if len(blocks) == 0 {
		return "", fmt.Errorf("empty digest")
	}

	_, ts, err := p.api.PostMessageContext(ctx, p.channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(firstLine(text), false),
	)
	if err != nil {
		p.log.Warn("slack digest post failed", zap.String("channel", p.channelID), zap.Error(err))
		return "", fmt.Errorf("posting digest: %w", err)
	}
	p.log.Info("slack digest posted", zap.String("channel", p.channelID), zap.Int("blocks", len(blocks)))
	return ts, nil
}

// ToMrkdwn rewrites the markdown subset produced by the dashboard renderer:
// **bold** becomes *bold* and headings become bold lines.
func ToMrkdwn(md string) string {
	out := headingRe.ReplaceAllString(md, "**$1**")
	return boldTokenRe.ReplaceAllString(out, "*$1*")
}

// splitSections cuts text at paragraph boundaries so that every part fits
// in limit. A single oversized paragraph is cut at line boundaries, and a
// single oversized line is hard-cut.
func splitSections(text string, limit int) []string {
	var parts []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
	}
	add := func(piece, sep string) {
		if cur.Len() > 0 && cur.Len()+len(sep)+len(piece) > limit {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(piece)
	}

	for _, para := range strings.Split(strings.TrimSpace(text), "\n\n") {
		if len(para) <= limit {
			add(para, "\n\n")
			continue
		}
		for _, line := range strings.Split(para, "\n") {
			for len(line) > limit {
				flush()
				parts = append(parts, line[:limit])
				line = line[limit:]
			}
			add(line, "\n")
		}
	}
	flush()
	return parts
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
