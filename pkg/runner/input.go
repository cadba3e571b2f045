package runner

import (
	"bufio"
	"io"
)

type inputResult struct {
	text string
	err  error
}

// pump reads lines from r until EOF and closes the returned channel.
func pump(r io.Reader) <-chan inputResult {
	ch := make(chan inputResult)
	go func() {
		defer close(ch)
		reader := bufio.NewReader(r)
		for {
			text, err := reader.ReadString('\n')
			// Send text even when it came with EOF.
			if text != "" {
				ch <- inputResult{text: text}
			}
			if err != nil {
				if err != io.EOF {
					ch <- inputResult{err: err}
				}
				return
			}
		}
	}()
	return ch
}
