package stream

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/RishiKendai/plagcheck/internal/models"
)

const (
	OpCheck = "check"
	OpAdd   = "add"
)

var ErrInvalidMessage = errors.New("invalid stream message")

type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// Request is a parsed stream entry. Options is only used by check requests.
type Request struct {
	MessageID string
	RequestID string
	Op        string
	Text      string
	Options   models.CheckOptions
}

// ParseRequest reads a request from the stream fields. Option fields that are
// absent keep the value from defaults.
func ParseRequest(msg *StreamMessage, defaults models.CheckOptions) (*Request, error) {
	req := &Request{
		MessageID: msg.ID,
		RequestID: msg.Fields["requestId"],
		Op:        strings.ToLower(strings.TrimSpace(msg.Fields["op"])),
		Text:      msg.Fields["text"],
		Options:   defaults,
	}
	if req.Op == "" {
		req.Op = OpCheck
	}
	if req.RequestID == "" {
		req.RequestID = msg.ID
	}

	switch req.Op {
	case OpCheck, OpAdd:
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidMessage, req.Op)
	}

	if _, ok := msg.Fields["text"]; !ok {
		return nil, fmt.Errorf("%w: missing text field", ErrInvalidMessage)
	}

	if req.Op == OpAdd {
		return req, nil
	}

	var err error
	if v, ok := msg.Fields["k"]; ok {
		if req.Options.ShingleSize, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("%w: k: %v", ErrInvalidMessage, err)
		}
	}
	if v, ok := msg.Fields["threshold"]; ok {
		if req.Options.MinSimilarity, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("%w: threshold: %v", ErrInvalidMessage, err)
		}
	}

	bools := []struct {
		field string
		dst   *bool
	}{
		{"local", &req.Options.CheckLocal},
		{"remote", &req.Options.CheckRemote},
		{"includeCitations", &req.Options.IncludeCitations},
		{"scrapeSources", &req.Options.ScrapeSources},
	}
	for _, b := range bools {
		v, ok := msg.Fields[b.field]
		if !ok {
			continue
		}
		if *b.dst, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, b.field, err)
		}
	}

	if err := req.Options.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	return req, nil
}
