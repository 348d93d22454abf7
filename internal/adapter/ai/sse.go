package ai

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// ExtractFunc turns one SSE data payload into text. done ends the stream
// cleanly; a non-nil err ends it with that error. Payloads that cannot be
// parsed should yield ("", false, nil) so a single bad frame is skipped.
type ExtractFunc func(data []byte) (text string, done bool, err error)

var (
	dataPrefix = []byte("data:")
	doneMarker = []byte("[DONE]")
)

// NewSSEStream converts a server-sent event body into a plain text stream.
// Closing the returned reader closes body.
func NewSSEStream(body io.ReadCloser, extract ExtractFunc) io.ReadCloser {
	pr, pw := io.Pipe()
	s := &sseStream{pr: pr, body: body}
	go pump(body, pw, extract)
	return s
}

func pump(body io.Reader, pw *io.PipeWriter, extract ExtractFunc) {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if !bytes.HasPrefix(line, dataPrefix) {
			continue
		}
		data := bytes.TrimSpace(line[len(dataPrefix):])
		if len(data) == 0 {
			continue
		}
		if bytes.Equal(data, doneMarker) {
			_ = pw.Close()
			return
		}
		text, done, err := extract(data)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if text != "" {
			if _, err := io.WriteString(pw, text); err != nil {
				return
			}
		}
		if done {
			_ = pw.Close()
			return
		}
	}
	_ = pw.CloseWithError(sc.Err())
}

type sseStream struct {
	pr   *io.PipeReader
	body io.ReadCloser
	once sync.Once
	err  error
}

func (s *sseStream) Read(p []byte) (int, error) { return s.pr.Read(p) }

func (s *sseStream) Close() error {
	s.once.Do(func() {
		_ = s.pr.Close()
		s.err = s.body.Close()
	})
	return s.err
}
